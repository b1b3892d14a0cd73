// Package handler provides HTTP handlers for the TripSync API.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tripsync/tripsync/internal/api/models"
	"github.com/tripsync/tripsync/internal/api/response"
	"github.com/tripsync/tripsync/internal/backend"
	"github.com/tripsync/tripsync/internal/poll"
	"github.com/tripsync/tripsync/internal/snapshot"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	schedulers map[string]*poll.Scheduler
	backend    *backend.Client
	snapshots  *snapshot.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, schedulers map[string]*poll.Scheduler, bc *backend.Client, snapshots *snapshot.Service) *OpsHandler {
	return &OpsHandler{
		version:    version,
		buildTime:  buildTime,
		schedulers: schedulers,
		backend:    bc,
		snapshots:  snapshots,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The engine is ready once the backend circuit is not open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.backend != nil && h.backend.BreakerHealth().State == "open" {
		status = models.HealthStatusDegraded
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - scheduler and backend status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	states := make(map[string]poll.State, len(h.schedulers))
	for name, s := range h.schedulers {
		states[name] = s.State()
	}

	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(now),
		Schedulers: states,
	}

	if h.backend != nil {
		bh := h.backend.BreakerHealth()
		status.Backend = models.BackendStatus{
			BreakerState: bh.State,
			Requests:     bh.Requests,
			Failures:     bh.Failures,
		}
		if bh.State == "open" {
			status.Status = models.HealthStatusDegraded
		}
	}

	if h.snapshots != nil {
		snap, err := h.snapshots.Latest(r.Context())
		switch {
		case err == nil:
			status.Snapshot = &models.SnapshotStatus{
				ID:          snap.ID,
				Fingerprint: snap.Fingerprint,
				FetchedAt:   models.Timestamp(snap.FetchedAt),
				AgeSeconds:  now.Sub(snap.FetchedAt).Seconds(),
				Itineraries: len(snap.Itineraries),
			}
		case errors.Is(err, snapshot.ErrNoSnapshot):
			// Nothing captured yet; omit the section.
		default:
			detail := err.Error()
			status.Status = models.HealthStatusDegraded
			status.Subsystems = append(status.Subsystems, models.SubsystemStatus{
				Name:   "snapshot-store",
				Status: models.HealthStatusFail,
				Detail: &detail,
			})
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
