package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AllocationHandler struct {
	allocStore    AllocationStore
	taskStore     TaskStore
	resourceStore ResourceStore
}

func NewAllocationHandler(allocStore AllocationStore, taskStore TaskStore, resourceStore ResourceStore) *AllocationHandler {
	return &AllocationHandler{
		allocStore:    allocStore,
		taskStore:     taskStore,
		resourceStore: resourceStore,
	}
}

// AllocationReplaceRequest carries the requested active resource set
type AllocationReplaceRequest struct {
	ResourceIDs []uint `json:"resource_ids" binding:"required"`
}

// Replace reconciles the task's active allocations against the requested
// resource set and returns the full allocation history.
func (h *AllocationHandler) Replace(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AllocationReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := h.taskStore.GetByID(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	}

	resources, err := h.resourceStore.ListByIDs(c.Request.Context(), req.ResourceIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.allocStore.ReplaceActive(c.Request.Context(), taskID, resources); err != nil {
		respondError(c, err)
		return
	}

	history, err := h.allocStore.HistoryByTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// History returns every allocation row for the task, assigned_at ascending
func (h *AllocationHandler) History(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.taskStore.GetByID(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	}

	history, err := h.allocStore.HistoryByTask(c.Request.Context(), taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// Remove soft-removes a single allocation row for manual audit correction
func (h *AllocationHandler) Remove(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	allocationID, ok := parseIDParam(c, "allocation_id")
	if !ok {
		return
	}

	alloc, err := h.allocStore.Remove(c.Request.Context(), taskID, allocationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, alloc)
}
