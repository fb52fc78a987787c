package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corvidnet/netmgrd/internal/api/models"
)

// NetioStats godoc
// @Summary UDP listener statistics
// @Description Returns per-listener open/bind/send/recv-drop counters
// @Tags netio
// @Produce json
// @Success 200 {object} models.NetioStatsResponse
// @Security ApiKeyAuth
// @Router /netio/stats [get]
func (h *Handler) NetioStats(c *gin.Context) {
	listeners := h.snapshotListeners()

	resp := models.NetioStatsResponse{Listeners: make([]models.ListenerStatsResponse, 0, len(listeners))}
	for _, l := range listeners {
		s := l.Stats()
		addr := ""
		if a := l.Addr(); a != nil {
			addr = a.String()
		}
		resp.Listeners = append(resp.Listeners, models.ListenerStatsResponse{
			Addr:     addr,
			Open:     s.Open,
			OpenFail: s.OpenFail,
			BindFail: s.BindFail,
			Close:    s.Close,
			SendFail: s.SendFail,
			RecvDrop: s.RecvDrop,
		})
	}

	c.JSON(http.StatusOK, resp)
}
