// Package observability exposes the live gauges of the hub for periodic
// reporting.
package observability

// HubStats is a point-in-time snapshot of the presence engine.
type HubStats struct {
	Connections int
	ActiveRooms int
	OnlineUsers int
}

// StatsSource supplies a snapshot on demand; implemented by wiring the
// registry and membership counters together in main.
type StatsSource func() HubStats
