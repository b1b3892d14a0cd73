// Package snapshot stores the most recent itinerary payload and its
// normalized form, so the presentation layer always has a last good
// state to serve even while the backend is unavailable.
package snapshot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tripsync/tripsync/internal/itinerary"
)

// ErrNoSnapshot is returned when no payload has been captured yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// Snapshot is a captured backend payload together with its normalized form.
type Snapshot struct {
	ID          string                `json:"id"`
	Raw         json.RawMessage       `json:"raw"`
	Itineraries []itinerary.Itinerary `json:"itineraries"`
	Fingerprint string                `json:"fingerprint"`
	FetchedAt   time.Time             `json:"fetchedAt"`
}
