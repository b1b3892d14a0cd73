package models

import "github.com/tripsync/tripsync/internal/poll"

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall engine status.
type SystemStatus struct {
	Status     HealthStatus            `json:"status"`
	Time       Timestamp               `json:"time"`
	Schedulers map[string]poll.State   `json:"schedulers"`
	Backend    BackendStatus           `json:"backend"`
	Snapshot   *SnapshotStatus         `json:"snapshot,omitempty"`
	Subsystems []SubsystemStatus       `json:"subsystems,omitempty"`
}

// BackendStatus describes the upstream backend circuit breaker.
type BackendStatus struct {
	BreakerState string `json:"breakerState"`
	Requests     uint32 `json:"requests"`
	Failures     uint32 `json:"totalFailures"`
}

// SnapshotStatus describes the last captured payload.
type SnapshotStatus struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	FetchedAt   Timestamp `json:"fetchedAt"`
	AgeSeconds  float64   `json:"ageSeconds"`
	Itineraries int       `json:"itineraries"`
}

// SubsystemStatus represents the status of a subsystem.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}
