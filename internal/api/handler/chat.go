package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tripsync/tripsync/internal/api/models"
	"github.com/tripsync/tripsync/internal/api/response"
	"github.com/tripsync/tripsync/internal/chat"
)

// ChatHandler ingests dashboard chat messages and reports whether each
// one looked like an itinerary request.
type ChatHandler struct {
	classifier *chat.Classifier
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(classifier *chat.Classifier) *ChatHandler {
	return &ChatHandler{classifier: classifier}
}

// ObserveMessage handles POST /v1/chat/messages.
func (h *ChatHandler) ObserveMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.ChatMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if msg.Message == "" {
		response.BadRequest(w, r, "message is required", []models.FieldError{
			{Field: "message", Message: "must not be empty", Code: "required"},
		})
		return
	}

	matched := h.classifier.Observe(msg.Message)

	response.JSON(w, r, http.StatusOK, models.ChatObservation{
		ItineraryRequest: matched,
		ObservedAt:       models.Timestamp(time.Now()),
	})
}
