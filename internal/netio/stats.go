package netio

import "sync/atomic"

// ListenerStats are the lifetime counters for a single udp listener, mirroring
// the open/openfail/bindfail/close/sendfail bookkeeping the spec calls for.
// Modeled after the atomic-counter-plus-snapshot shape used elsewhere in this
// codebase for server statistics.
type ListenerStats struct {
	open     atomic.Uint64
	openFail atomic.Uint64
	bindFail atomic.Uint64
	closeCnt atomic.Uint64
	sendFail atomic.Uint64
	recvDrop atomic.Uint64
}

// ListenerStatsSnapshot is a point-in-time copy of ListenerStats safe to log
// or serve over the admin API.
type ListenerStatsSnapshot struct {
	Open     uint64 `json:"open"`
	OpenFail uint64 `json:"open_fail"`
	BindFail uint64 `json:"bind_fail"`
	Close    uint64 `json:"close"`
	SendFail uint64 `json:"send_fail"`
	RecvDrop uint64 `json:"recv_drop"`
}

// Snapshot returns the current counter values.
func (s *ListenerStats) Snapshot() ListenerStatsSnapshot {
	return ListenerStatsSnapshot{
		Open:     s.open.Load(),
		OpenFail: s.openFail.Load(),
		BindFail: s.bindFail.Load(),
		Close:    s.closeCnt.Load(),
		SendFail: s.sendFail.Load(),
		RecvDrop: s.recvDrop.Load(),
	}
}
