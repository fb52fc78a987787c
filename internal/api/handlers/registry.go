package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvidnet/netmgrd/internal/api/models"
)

// RegistryStats godoc
// @Summary Object registry summary
// @Description Returns registered object type names and the live handle count
// @Tags registry
// @Produce json
// @Success 200 {object} models.RegistryStatsResponse
// @Security ApiKeyAuth
// @Router /registry/stats [get]
func (h *Handler) RegistryStats(c *gin.Context) {
	reg := h.snapshotRegistry()
	if reg == nil {
		c.JSON(http.StatusOK, models.RegistryStatsResponse{Types: []string{}})
		return
	}

	c.JSON(http.StatusOK, models.RegistryStatsResponse{
		Types:       reg.Types.Names(),
		LiveHandles: reg.Handles.LiveCount(),
	})
}
