// Package handlers_test provides behavior tests for the API handlers package.
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidnet/netmgrd/internal/api/handlers"
	"github.com/corvidnet/netmgrd/internal/api/models"
	"github.com/corvidnet/netmgrd/internal/audit"
	"github.com/corvidnet/netmgrd/internal/config"
	"github.com/corvidnet/netmgrd/internal/netio"
	"github.com/corvidnet/netmgrd/internal/omp"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestHandler(t *testing.T) *handlers.Handler {
	cfg := &config.Config{}
	return handlers.New(cfg, nil)
}

func performRequest(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ============================================================================
// Health Endpoint Tests
// ============================================================================

func TestHealth_ReturnsOK(t *testing.T) {
	h := createTestHandler(t)
	router := gin.New()
	router.GET("/health", h.Health)

	w := performRequest(router, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.StatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

// ============================================================================
// Stats Endpoint Tests
// ============================================================================

func TestStats_ReturnsServerStats(t *testing.T) {
	h := createTestHandler(t)
	router := gin.New()
	router.GET("/stats", h.Stats)

	w := performRequest(router, "GET", "/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ServerStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Uptime)
	assert.GreaterOrEqual(t, resp.GoRoutines, 1)
	assert.Positive(t, resp.NumCPU)
}

// ============================================================================
// Netio Stats Endpoint Tests
// ============================================================================

func TestNetioStats_NoListeners(t *testing.T) {
	h := createTestHandler(t)
	router := gin.New()
	router.GET("/netio/stats", h.NetioStats)

	w := performRequest(router, "GET", "/netio/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.NetioStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Empty(t, resp.Listeners)
}

func TestNetioStats_WithListener(t *testing.T) {
	h := createTestHandler(t)

	mgr := netio.NewManager(1, 0, nil)
	mgr.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = mgr.Shutdown(ctx)
	})

	l, err := netio.ListenUDP(mgr, "127.0.0.1:0", nil, nil, netio.ListenUDPOptions{})
	require.NoError(t, err)

	h.SetListeners([]*netio.UDPListener{l})

	router := gin.New()
	router.GET("/netio/stats", h.NetioStats)

	w := performRequest(router, "GET", "/netio/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.NetioStatsResponse
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.Len(t, resp.Listeners, 1)
	assert.NotEmpty(t, resp.Listeners[0].Addr)
}

// ============================================================================
// Registry Stats Endpoint Tests
// ============================================================================

func TestRegistryStats_NoRegistry(t *testing.T) {
	h := createTestHandler(t)
	router := gin.New()
	router.GET("/registry/stats", h.RegistryStats)

	w := performRequest(router, "GET", "/registry/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RegistryStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Empty(t, resp.Types)
	assert.Equal(t, 0, resp.LiveHandles)
}

func TestRegistryStats_WithRegisteredType(t *testing.T) {
	h := createTestHandler(t)

	reg := omp.NewRegistry()
	reg.Types.Register(stubType{})
	h.SetRegistry(reg)

	router := gin.New()
	router.GET("/registry/stats", h.RegistryStats)

	w := performRequest(router, "GET", "/registry/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RegistryStatsResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Contains(t, resp.Types, "host")
}

type stubType struct{}

func (stubType) Name() string { return "host" }

// ============================================================================
// Audit Endpoint Tests
// ============================================================================

func openTestLedger(t *testing.T) *audit.Ledger {
	path := filepath.Join(t.TempDir(), "audit.db")
	l, err := audit.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAuditRecent_NoLedger(t *testing.T) {
	h := createTestHandler(t)
	router := gin.New()
	router.GET("/audit/recent", h.AuditRecent)

	w := performRequest(router, "GET", "/audit/recent", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.AuditEntryResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Empty(t, resp)
}

func TestAuditRecent_ReturnsEntries(t *testing.T) {
	h := createTestHandler(t)
	ledger := openTestLedger(t)
	h.SetLedger(ledger)

	ctx := httptest.NewRequest("GET", "/audit/recent", nil).Context()
	require.NoError(t, ledger.Record(ctx, audit.Entry{
		Actor: "admin", Action: "create", Subject: "host:web1", Result: "ok",
	}))

	router := gin.New()
	router.GET("/audit/recent", h.AuditRecent)

	w := performRequest(router, "GET", "/audit/recent", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.AuditEntryResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "admin", resp[0].Actor)
	assert.Equal(t, "host:web1", resp[0].Subject)
}

func TestAuditRecent_RespectsLimitParam(t *testing.T) {
	h := createTestHandler(t)
	ledger := openTestLedger(t)
	h.SetLedger(ledger)

	ctx := httptest.NewRequest("GET", "/audit/recent", nil).Context()
	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Record(ctx, audit.Entry{
			Actor: "admin", Action: "create", Subject: "host:n", Result: "ok",
		}))
	}

	router := gin.New()
	router.GET("/audit/recent", h.AuditRecent)

	w := performRequest(router, "GET", "/audit/recent?limit=2", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp []models.AuditEntryResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
}

// ============================================================================
// Handler Initialization Tests
// ============================================================================

func TestHandler_New(t *testing.T) {
	cfg := &config.Config{}
	h := handlers.New(cfg, nil)

	assert.NotNil(t, h)
}
