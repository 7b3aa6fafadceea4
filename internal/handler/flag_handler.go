package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdesk/internal/model"
)

// FlagHandler serves the static flag catalog, loaded once at startup.
type FlagHandler struct {
	catalog *model.FlagCatalog
}

func NewFlagHandler(catalog *model.FlagCatalog) *FlagHandler {
	return &FlagHandler{catalog: catalog}
}

// List returns the full catalog
func (h *FlagHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.All())
}
