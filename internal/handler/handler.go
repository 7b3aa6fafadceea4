package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/model"
	"taskdesk/internal/repository"
	"taskdesk/internal/taskerr"
)

// Store interfaces consumed by the handlers. The gorm repositories satisfy
// them; tests substitute testify mocks.

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id uint) (*model.Task, error)
	ListByCreatedRange(ctx context.Context, start, end time.Time) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	UpdateStatus(ctx context.Context, id uint, status model.Status, closedAt *time.Time, rating *int) error
	SoftDelete(ctx context.Context, id uint) error
	SetParent(ctx context.Context, childID, parentID uint) error
	ClearParent(ctx context.Context, childID uint) error
	Search(ctx context.Context, term string, resourceIDs []uint) ([]model.Task, error)
	ReplaceFlags(ctx context.Context, task *model.Task, flags []model.Flag) error
}

type AllocationStore interface {
	ReplaceActive(ctx context.Context, taskID uint, resources []model.Resource) error
	HistoryByTask(ctx context.Context, taskID uint) ([]model.Allocation, error)
	Remove(ctx context.Context, taskID, allocationID uint) (*model.Allocation, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
}

type ResourceStore interface {
	ListByIDs(ctx context.Context, ids []uint) ([]model.Resource, error)
	SearchByName(ctx context.Context, name string) ([]model.Resource, error)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// respondError maps repository and guard errors onto HTTP statuses. The
// message is passed through so the client can surface it verbatim.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrAllocationNotFound),
		errors.Is(err, repository.ErrResourceNotFound),
		errors.Is(err, repository.ErrParentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrAlreadyLinked),
		taskerr.IsKind(err, taskerr.KindAlreadyLinked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case taskerr.IsKind(err, taskerr.KindInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case taskerr.IsKind(err, taskerr.KindValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
