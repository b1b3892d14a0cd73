// Package itinerary defines the canonical itinerary model and the normalizer
// that converts loosely-shaped planning backend payloads into it.
package itinerary

import (
	"errors"
)

// Itinerary errors.
var (
	// ErrParse indicates the raw payload could not be parsed as JSON.
	// Partial or malformed entries inside valid JSON never raise it.
	ErrParse = errors.New("itinerary payload is not valid JSON")
)

// MilesPerKilometer converts backend kilometer distances to miles.
const MilesPerKilometer = 0.621371

// Placeholder labels for legs whose endpoints carry no name.
const (
	PlaceholderOrigin      = "Start"
	PlaceholderDestination = "Destination"
)

// Shape tags which payload variant an itinerary was resolved from.
type Shape string

const (
	// ShapeDays is the current schema: an explicit days array.
	ShapeDays Shape = "days"
	// ShapeFlatLegs is the legacy schema: a flat legs array with no day
	// grouping. The legs are kept flat; totals treat them as one day group.
	ShapeFlatLegs Shape = "flat-legs"
	// ShapeEmpty is a payload with neither days nor legs.
	ShapeEmpty Shape = "empty"
)

// Endpoint is one named end of a leg, with an optional local time.
type Endpoint struct {
	Name string `json:"name"`
	Time string `json:"time,omitempty"`
}

// Leg is one directed segment of travel between two named points.
type Leg struct {
	// Mode is the transport mode, lowercased. Unknown modes are preserved
	// verbatim rather than collapsed into a catch-all.
	Mode string `json:"mode"`

	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`

	// DurationMinutes is never negative; unparsable input normalizes to 0.
	DurationMinutes float64 `json:"durationMinutes"`

	// DistanceMiles is never negative. Derived from kilometers when the
	// backend only supplies metric distances.
	DistanceMiles float64 `json:"distanceMiles"`

	Description string `json:"description,omitempty"`
}

// Day is an ordered group of legs assigned to one calendar day.
type Day struct {
	// Number is 1-based. Defaults to the day's position when omitted.
	Number int    `json:"day"`
	Title  string `json:"title,omitempty"`
	Date   string `json:"date,omitempty"`
	Legs   []Leg  `json:"legs"`
}

// Summary holds itinerary-wide aggregates. Always fully populated: values
// the backend omits are recomputed from the contained legs.
type Summary struct {
	TotalDurationMinutes float64 `json:"totalDurationMinutes"`
	TotalDistanceMiles   float64 `json:"totalDistanceMiles"`
	TotalDays            int     `json:"totalDays"`
}

// Itinerary is the canonical in-memory form of one itinerary.
type Itinerary struct {
	// ID is stable per fetch cycle and used as the render key.
	ID string `json:"id"`

	Shape Shape `json:"shape,omitempty"`

	// Days is ordered chronologically; insertion order is preserved across
	// refetches. Empty for flat-legs and empty shapes.
	Days []Day `json:"days,omitempty"`

	// Legs carries the legacy flat sequence for flat-legs payloads. It is
	// never synthesized into Days.
	Legs []Leg `json:"legs,omitempty"`

	Summary Summary `json:"summary"`
}

// AllLegs returns the legs of the itinerary in order, regardless of shape.
func (it *Itinerary) AllLegs() []Leg {
	if len(it.Days) == 0 {
		return it.Legs
	}
	var legs []Leg
	for _, d := range it.Days {
		legs = append(legs, d.Legs...)
	}
	return legs
}

// IsEmpty reports whether the itinerary has no legs at all.
func (it *Itinerary) IsEmpty() bool {
	return len(it.AllLegs()) == 0
}
