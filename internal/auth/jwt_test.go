package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskdesk/internal/auth"
	"taskdesk/internal/model"
)

func TestGenerateAndParseToken(t *testing.T) {
	// Arrange
	actor := model.Actor{ID: 42, Name: "Ana Petrova"}

	// Act
	token, err := auth.GenerateToken("test-secret", actor, time.Hour)
	assert.NoError(t, err)

	parsed, err := auth.ParseToken("test-secret", token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestParseToken_WrongSecret(t *testing.T) {
	actor := model.Actor{ID: 42, Name: "Ana Petrova"}
	token, err := auth.GenerateToken("test-secret", actor, time.Hour)
	assert.NoError(t, err)

	_, err = auth.ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	actor := model.Actor{ID: 42, Name: "Ana Petrova"}
	token, err := auth.GenerateToken("test-secret", actor, -time.Minute)
	assert.NoError(t, err)

	_, err = auth.ParseToken("test-secret", token)
	assert.Error(t, err)
}
