// Package handlers implements the REST API endpoint handlers for netmgrd.
//
// @title netmgrd Management API
// @version 1.0
// @description REST API for observing the UDP listener fan-out core and
// the Object Management Protocol registry, and for browsing the admin
// operation audit ledger.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/corvidnet/netmgrd/internal/audit"
	"github.com/corvidnet/netmgrd/internal/config"
	"github.com/corvidnet/netmgrd/internal/netio"
	"github.com/corvidnet/netmgrd/internal/omp"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	// Runtime components. These are nil until cmd/netmgrd finishes
	// bringing up the listener core and the OMP registry, so every
	// handler must tolerate a nil dependency (reported as an empty or
	// zero-valued response, never a panic).
	mu        sync.RWMutex
	listeners []*netio.UDPListener
	registry  *omp.Registry
	ledger    *audit.Ledger
}

// New creates a new Handler with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// SetListeners sets the UDP listeners to report stats for.
func (h *Handler) SetListeners(listeners []*netio.UDPListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = listeners
}

// SetRegistry sets the object registry to report summaries for.
func (h *Handler) SetRegistry(reg *omp.Registry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registry = reg
}

// SetLedger sets the audit ledger to serve recent entries from.
func (h *Handler) SetLedger(l *audit.Ledger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger = l
}

func (h *Handler) snapshotListeners() []*netio.UDPListener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listeners
}

func (h *Handler) snapshotRegistry() *omp.Registry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry
}

func (h *Handler) snapshotLedger() *audit.Ledger {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger
}
