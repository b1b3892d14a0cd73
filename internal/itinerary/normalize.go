package itinerary

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// minutesPerDay is used to derive a day count for flat-legs payloads.
const minutesPerDay = 1440

// Normalize converts a raw backend payload into canonical itineraries.
//
// The payload may be null, a single object, or an array of objects; each
// object may follow the current days schema, the legacy flat-legs schema, or
// be empty. Malformed entries degrade to defaults rather than failing; the
// only error returned is ErrParse when raw is not valid JSON.
func Normalize(raw json.RawMessage) ([]Itinerary, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
		return []Itinerary{normalizeOne(v)}, nil
	case []any:
		out := make([]Itinerary, 0, len(v))
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok || len(obj) == 0 {
				// Null or non-object array entries carry no itinerary.
				continue
			}
			out = append(out, normalizeOne(obj))
		}
		return out, nil
	default:
		// Scalars are syntactically valid JSON but carry no itinerary.
		return nil, nil
	}
}

// normalizeOne resolves a single payload object. Shape resolution is ordered:
// explicit days win, then legacy flat legs, then empty.
func normalizeOne(obj map[string]any) Itinerary {
	it := Itinerary{
		ID:    stringField(obj, "id", "itinerary_id"),
		Shape: ShapeEmpty,
	}
	if it.ID == "" {
		it.ID = uuid.New().String()
	}

	if rawDays, ok := obj["days"].([]any); ok && len(rawDays) > 0 {
		it.Shape = ShapeDays
		for _, rd := range rawDays {
			day, ok := normalizeDay(rd, len(it.Days)+1)
			if !ok {
				continue
			}
			it.Days = append(it.Days, day)
		}
		if len(it.Days) == 0 {
			it.Shape = ShapeEmpty
		}
	} else if rawLegs, ok := obj["legs"].([]any); ok && len(rawLegs) > 0 {
		it.Shape = ShapeFlatLegs
		it.Legs = normalizeLegs(rawLegs)
		if len(it.Legs) == 0 {
			it.Shape = ShapeEmpty
		}
	}

	it.Summary = resolveSummary(obj, &it)
	return it
}

func normalizeDay(v any, position int) (Day, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Day{}, false
	}

	day := Day{
		Number: int(numberField(obj, "day", "number")),
		Title:  stringField(obj, "title", "name"),
		Date:   stringField(obj, "date"),
	}
	if day.Number < 1 {
		day.Number = position
	}
	if rawLegs, ok := obj["legs"].([]any); ok {
		day.Legs = normalizeLegs(rawLegs)
	}
	return day, true
}

func normalizeLegs(raw []any) []Leg {
	legs := make([]Leg, 0, len(raw))
	for _, rl := range raw {
		leg, ok := normalizeLeg(rl)
		if !ok {
			continue
		}
		legs = append(legs, leg)
	}
	return legs
}

// normalizeLeg converts one raw leg entry. Only null entries are dropped;
// anything else degrades field by field to defaults.
func normalizeLeg(v any) (Leg, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Leg{}, false
	}

	leg := Leg{
		Mode:            strings.ToLower(strings.TrimSpace(stringField(obj, "mode", "transport_mode"))),
		From:            normalizeEndpoint(obj["from"], PlaceholderOrigin),
		To:              normalizeEndpoint(obj["to"], PlaceholderDestination),
		DurationMinutes: numberField(obj, "durationMinutes", "duration_minutes", "duration"),
		Description:     stringField(obj, "description"),
	}

	if miles, ok := lookupNumber(obj, "distanceMiles", "distance_miles"); ok {
		leg.DistanceMiles = miles
	} else if km, ok := lookupNumber(obj, "distanceKm", "distance_km"); ok {
		leg.DistanceMiles = km * MilesPerKilometer
	}

	return leg, true
}

// normalizeEndpoint accepts either a bare name string or a {name, time}
// object. Missing names become the placeholder so the leg still renders.
func normalizeEndpoint(v any, placeholder string) Endpoint {
	ep := Endpoint{}
	switch e := v.(type) {
	case string:
		ep.Name = strings.TrimSpace(e)
	case map[string]any:
		ep.Name = stringField(e, "name")
		ep.Time = stringField(e, "time")
	}
	if ep.Name == "" {
		ep.Name = placeholder
	}
	return ep
}

// resolveSummary prefers explicit non-zero summary fields and falls back to
// exact per-leg sums for anything the backend omitted.
func resolveSummary(obj map[string]any, it *Itinerary) Summary {
	legs := it.AllLegs()

	var s Summary
	for _, leg := range legs {
		s.TotalDurationMinutes += leg.DurationMinutes
		s.TotalDistanceMiles += leg.DistanceMiles
	}

	switch it.Shape {
	case ShapeDays:
		s.TotalDays = len(it.Days)
	case ShapeFlatLegs:
		s.TotalDays = int(math.Ceil(s.TotalDurationMinutes / minutesPerDay))
		if s.TotalDays < 1 {
			s.TotalDays = 1
		}
	}

	explicit, ok := obj["summary"].(map[string]any)
	if !ok {
		return s
	}
	if v, ok := lookupNumber(explicit, "totalDurationMinutes", "total_duration_minutes"); ok && v > 0 {
		s.TotalDurationMinutes = v
	}
	if v, ok := lookupNumber(explicit, "totalDistanceMiles", "total_distance_miles"); ok && v > 0 {
		s.TotalDistanceMiles = v
	}
	if v, ok := lookupNumber(explicit, "totalDays", "total_days"); ok && v > 0 {
		s.TotalDays = int(v)
	}
	return s
}

// stringField returns the first present string-typed value among keys.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// numberField returns the first present numeric value among keys, or 0.
func numberField(obj map[string]any, keys ...string) float64 {
	v, _ := lookupNumber(obj, keys...)
	return v
}

// lookupNumber reports whether any of the keys is present with a non-null
// value. Present but unparsable values normalize to 0 rather than falling
// through to later keys.
func lookupNumber(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		return asNumber(raw), true
	}
	return 0, false
}

// asNumber coerces a decoded JSON value to a usable float64. Never negative,
// never NaN.
func asNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
