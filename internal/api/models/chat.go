package models

// ChatMessage is an observed dashboard chat message.
type ChatMessage struct {
	Message string `json:"message"`
}

// ChatObservation is the result of classifying a chat message.
type ChatObservation struct {
	ItineraryRequest bool      `json:"itineraryRequest"`
	ObservedAt       Timestamp `json:"observedAt"`
}

// SignalRequest is an explicit itinerary request signal.
type SignalRequest struct {
	// TimestampMS is an optional client-side epoch in milliseconds.
	TimestampMS int64 `json:"timestamp,omitempty"`
}

// SignalAccepted acknowledges a published signal.
type SignalAccepted struct {
	AcceptedAt Timestamp `json:"acceptedAt"`
}
