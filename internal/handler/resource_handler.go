package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	resourceStore ResourceStore
}

func NewResourceHandler(resourceStore ResourceStore) *ResourceHandler {
	return &ResourceHandler{resourceStore: resourceStore}
}

// Search looks up assignable people by name substring
func (h *ResourceHandler) Search(c *gin.Context) {
	resources, err := h.resourceStore.SearchByName(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resources)
}
