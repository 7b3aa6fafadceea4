package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/middleware"
	"taskdesk/internal/model"
)

type TaskHandler struct {
	taskStore TaskStore
}

func NewTaskHandler(taskStore TaskStore) *TaskHandler {
	return &TaskHandler{taskStore: taskStore}
}

// TaskCreateRequest is the payload for creating a task
type TaskCreateRequest struct {
	Title             string     `json:"title" binding:"required"`
	BusinessUnitID    uint       `json:"business_unit_id" binding:"required"`
	OperationalUnitID uint       `json:"operational_unit_id" binding:"required"`
	Priority          *int       `json:"priority"`
	DueDate           *time.Time `json:"due_date"`
	Points            *float64   `json:"points"`
}

// TaskUpdateRequest is the full field set accepted by PUT
type TaskUpdateRequest struct {
	Title             string     `json:"title" binding:"required"`
	BusinessUnitID    uint       `json:"business_unit_id" binding:"required"`
	OperationalUnitID uint       `json:"operational_unit_id" binding:"required"`
	Priority          int        `json:"priority" binding:"required"`
	Status            string     `json:"status" binding:"required"`
	DueDate           *time.Time `json:"due_date"`
	Points            *float64   `json:"points"`
	Rating            *int       `json:"rating"`
	FlagIDs           *[]uint    `json:"flag_ids"`
}

// TaskStatusRequest is the payload for the status-only patch
type TaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Rating *int   `json:"rating"`
}

// TaskParentRequest links a task under a parent
type TaskParentRequest struct {
	ParentID uint `json:"parent_id" binding:"required"`
}

// Create creates a new task owned by the acting user as requester.
// The server assigns id, creation timestamp and initial status.
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	priority := model.PriorityMedium
	if req.Priority != nil {
		priority = model.Priority(*req.Priority)
	}

	task := &model.Task{
		Title:             req.Title,
		BusinessUnitID:    req.BusinessUnitID,
		OperationalUnitID: req.OperationalUnitID,
		Priority:          priority,
		Status:            model.StatusOpen,
		RequesterID:       actor.ID,
		RequesterName:     actor.Name,
		DueDate:           req.DueDate,
		Points:            req.Points,
	}

	if err := task.Validate(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.taskStore.Create(c.Request.Context(), task); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.taskStore.GetByID(c.Request.Context(), task.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List returns tasks created within [start, end], both dates inclusive
func (h *TaskHandler) List(c *gin.Context) {
	start := time.Time{}
	end := time.Now()

	if s := c.Query("start"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date"})
			return
		}
		start = parsed
	}
	if e := c.Query("end"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date"})
			return
		}
		// the whole end day is in range
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	tasks, err := h.taskStore.ListByCreatedRange(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GetByID returns a single task with its collections
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// Update replaces the task's full field set and returns the authoritative
// server representation.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	existing, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	updated := *existing
	updated.Title = req.Title
	updated.BusinessUnitID = req.BusinessUnitID
	updated.OperationalUnitID = req.OperationalUnitID
	updated.Priority = model.Priority(req.Priority)
	updated.DueDate = req.DueDate
	updated.Points = req.Points
	updated.Rating = req.Rating

	if model.Status(req.Status) != existing.Status {
		updated, err = model.ApplyTransition(updated, model.Status(req.Status), time.Now())
		if err != nil {
			respondError(c, err)
			return
		}
		// the transition may have dropped the rating; reapply only a
		// rating that is legal for the resulting status
		if req.Rating != nil && updated.Status == model.StatusFinished {
			updated.Rating = req.Rating
		}
	}

	if err := model.CheckRatingChange(updated.Status, updated.Rating); err != nil {
		respondError(c, err)
		return
	}
	if err := updated.Validate(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.taskStore.Update(c.Request.Context(), &updated); err != nil {
		respondError(c, err)
		return
	}

	if req.FlagIDs != nil {
		flags := make([]model.Flag, 0, len(*req.FlagIDs))
		for _, flagID := range *req.FlagIDs {
			flags = append(flags, model.Flag{ID: flagID})
		}
		if err := h.taskStore.ReplaceFlags(c.Request.Context(), &updated, flags); err != nil {
			respondError(c, err)
			return
		}
	}

	fresh, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fresh)
}

// PatchStatus applies a status-only change with its closure side effect
// and returns the updated task.
func (h *TaskHandler) PatchStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	existing, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := model.ApplyTransition(*existing, model.Status(req.Status), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Rating != nil {
		if err := model.CheckRatingChange(updated.Status, req.Rating); err != nil {
			respondError(c, err)
			return
		}
		updated.Rating = req.Rating
	}

	if err := h.taskStore.UpdateStatus(c.Request.Context(), id, updated.Status, updated.ClosedAt, updated.Rating); err != nil {
		respondError(c, err)
		return
	}

	fresh, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fresh)
}

// Delete soft-deletes a task. A missing id comes back as 404; the client
// treats that as the end state already being reached.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskStore.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetParent links the task under a parent task
func (h *TaskHandler) SetParent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TaskParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.taskStore.SetParent(c.Request.Context(), id, req.ParentID); err != nil {
		respondError(c, err)
		return
	}

	fresh, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fresh)
}

// ClearParent unlinks the task from its parent
func (h *TaskHandler) ClearParent(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskStore.ClearParent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	fresh, err := h.taskStore.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fresh)
}

// Search returns link candidates for a free-text term and/or an overlap
// with a set of resource ids.
func (h *TaskHandler) Search(c *gin.Context) {
	term := c.Query("term")

	var resourceIDs []uint
	for _, raw := range c.QueryArray("resource_ids") {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource id"})
			return
		}
		resourceIDs = append(resourceIDs, uint(id))
	}

	tasks, err := h.taskStore.Search(c.Request.Context(), term, resourceIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}
