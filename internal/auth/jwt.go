package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskdesk/internal/model"
)

// GenerateToken issues a signed token carrying the acting user's id and
// display name. The core never validates sessions beyond this claim
// extraction; the surrounding console owns login itself.
func GenerateToken(secret string, actor model.Actor, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"actor_id":   actor.ID,
		"actor_name": actor.Name,
		"exp":        time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (model.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["actor_id"] == nil {
		return model.Actor{}, errors.New("invalid claims")
	}

	id, ok := claims["actor_id"].(float64)
	if !ok || id <= 0 {
		return model.Actor{}, errors.New("invalid actor id")
	}

	name, _ := claims["actor_name"].(string)
	return model.Actor{ID: uint(id), Name: name}, nil
}
