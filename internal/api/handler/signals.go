package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tripsync/tripsync/internal/api/models"
	"github.com/tripsync/tripsync/internal/api/response"
	"github.com/tripsync/tripsync/internal/signalbus"
)

// SignalHandler ingests explicit itinerary request signals.
type SignalHandler struct {
	broker *signalbus.Broker
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(broker *signalbus.Broker) *SignalHandler {
	return &SignalHandler{broker: broker}
}

// ItineraryRequest handles POST /v1/signals/itinerary-request.
// The body is optional; an empty body publishes a signal stamped now.
func (h *SignalHandler) ItineraryRequest(w http.ResponseWriter, r *http.Request) {
	var req models.SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	sig := signalbus.Signal{}
	if req.TimestampMS > 0 {
		sig.Timestamp = time.UnixMilli(req.TimestampMS)
	}

	h.broker.Publish(sig)

	response.JSON(w, r, http.StatusAccepted, models.SignalAccepted{
		AcceptedAt: models.Timestamp(time.Now()),
	})
}
