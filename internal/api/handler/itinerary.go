package handler

import (
	"errors"
	"net/http"

	"github.com/tripsync/tripsync/internal/api/models"
	"github.com/tripsync/tripsync/internal/api/response"
	"github.com/tripsync/tripsync/internal/itinerary"
	"github.com/tripsync/tripsync/internal/render"
	"github.com/tripsync/tripsync/internal/snapshot"
)

// ItineraryHandler serves the latest captured itinerary in raw-normalized
// and presentation-ready forms.
type ItineraryHandler struct {
	snapshots *snapshot.Service
}

// NewItineraryHandler creates a new ItineraryHandler.
func NewItineraryHandler(snapshots *snapshot.Service) *ItineraryHandler {
	return &ItineraryHandler{snapshots: snapshots}
}

// LatestResponse is the body of GET /v1/itinerary/latest.
type LatestResponse struct {
	SnapshotID  string                `json:"snapshotId"`
	FetchedAt   models.Timestamp      `json:"fetchedAt"`
	Itineraries []itinerary.Itinerary `json:"itineraries"`
}

// Latest handles GET /v1/itinerary/latest.
// Responds 204 until the first payload has been captured.
func (h *ItineraryHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			response.NoContent(w, r)
			return
		}
		response.InternalError(w, r, "failed to load latest itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, LatestResponse{
		SnapshotID:  snap.ID,
		FetchedAt:   models.Timestamp(snap.FetchedAt),
		Itineraries: snap.Itineraries,
	})
}

// RenderResponse is the body of GET /v1/itinerary/render.
type RenderResponse struct {
	SnapshotID string         `json:"snapshotId"`
	FetchedAt  models.Timestamp `json:"fetchedAt"`
	Views      []render.Model `json:"views"`
}

// Render handles GET /v1/itinerary/render.
// Responds 204 until the first payload has been captured.
func (h *ItineraryHandler) Render(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			response.NoContent(w, r)
			return
		}
		response.InternalError(w, r, "failed to load latest itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, RenderResponse{
		SnapshotID: snap.ID,
		FetchedAt:  models.Timestamp(snap.FetchedAt),
		Views:      render.BuildAll(snap.Itineraries),
	})
}
