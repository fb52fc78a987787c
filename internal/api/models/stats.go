package models

import "time"

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string      `json:"uptime"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     time.Time   `json:"start_time"`
	GoRoutines    int         `json:"go_routines"`
	NumCPU        int         `json:"num_cpu"`
	CPU           CPUStats    `json:"cpu"`
	Memory        MemoryStats `json:"memory"`
}

// ListenerStatsResponse is one UDP listener's lifetime counters, keyed by
// its bound address.
type ListenerStatsResponse struct {
	Addr     string `json:"addr"`
	Open     uint64 `json:"open"`
	OpenFail uint64 `json:"open_fail"`
	BindFail uint64 `json:"bind_fail"`
	Close    uint64 `json:"close"`
	SendFail uint64 `json:"send_fail"`
	RecvDrop uint64 `json:"recv_drop"`
}

// NetioStatsResponse wraps every known listener's stats.
type NetioStatsResponse struct {
	Listeners []ListenerStatsResponse `json:"listeners"`
}

// RegistryStatsResponse summarizes the object registry: registered type
// names and the number of live handles.
type RegistryStatsResponse struct {
	Types       []string `json:"types"`
	LiveHandles int      `json:"live_handles"`
}

// AuditEntryResponse is one ledger row rendered for the admin API.
type AuditEntryResponse struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}
