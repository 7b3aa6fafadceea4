package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/middleware"
	"taskdesk/internal/model"
)

type CommentHandler struct {
	commentStore CommentStore
	taskStore    TaskStore
}

func NewCommentHandler(commentStore CommentStore, taskStore TaskStore) *CommentHandler {
	return &CommentHandler{commentStore: commentStore, taskStore: taskStore}
}

// CommentCreateRequest carries the comment body; authorship comes from
// the session, never from the payload.
type CommentCreateRequest struct {
	Body string `json:"body" binding:"required"`
}

// Append adds a comment to the task's timeline and returns the created
// comment with its server-assigned id and timestamp. Comments cannot be
// edited or deleted afterwards.
func (h *CommentHandler) Append(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.taskStore.GetByID(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	}

	comment := &model.Comment{
		TaskID:     taskID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       req.Body,
	}

	if err := h.commentStore.Create(c.Request.Context(), comment); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}
