package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corvidnet/netmgrd/internal/api/models"
)

// AuditRecent godoc
// @Summary Recent admin operations
// @Description Returns the most recent entries from the admin operation audit ledger
// @Tags audit
// @Produce json
// @Param limit query int false "max entries to return"
// @Success 200 {array} models.AuditEntryResponse
// @Security ApiKeyAuth
// @Router /audit/recent [get]
func (h *Handler) AuditRecent(c *gin.Context) {
	ledger := h.snapshotLedger()
	if ledger == nil {
		c.JSON(http.StatusOK, []models.AuditEntryResponse{})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := ledger.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]models.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.AuditEntryResponse{
			ID: e.ID, Actor: e.Actor, Action: e.Action,
			Subject: e.Subject, Detail: e.Detail, Result: e.Result,
			CreatedAt: e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, out)
}
