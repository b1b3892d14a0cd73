package poll

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tripsync/tripsync/internal/itinerary"
)

// Detection is the result of comparing a fetched payload against the
// previously seen one.
type Detection struct {
	// Changed is true only when a previous fingerprint exists and differs.
	// The first fetch is never reported as changed.
	Changed bool

	// Fingerprint identifies the current payload for the next comparison.
	Fingerprint string
}

// Fingerprint returns a stable identifier for a raw payload. The payload is
// decoded and re-encoded so that key order does not matter; both sides of
// every comparison go through the same serialization.
func Fingerprint(raw json.RawMessage) (string, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %v", itinerary.ErrParse, err)
	}

	canonical, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("canonical encode: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// DetectChange fingerprints raw and compares it against prev. An empty prev
// means there is nothing to compare against yet.
func DetectChange(prev string, raw json.RawMessage) (Detection, error) {
	fp, err := Fingerprint(raw)
	if err != nil {
		return Detection{}, err
	}
	return Detection{
		Changed:     prev != "" && prev != fp,
		Fingerprint: fp,
	}, nil
}
