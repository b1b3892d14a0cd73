package render_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsync/tripsync/internal/itinerary"
	"github.com/tripsync/tripsync/internal/render"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "0h 0m"},
		{59, "0h 59m"},
		{60, "1h 0m"},
		{90, "1h 30m"},
		{125, "2h 5m"},
		{1441, "24h 1m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, render.FormatDuration(tt.minutes))
	}
}

func TestIconClass(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"flight", render.IconPlane},
		{"plane", render.IconPlane},
		{"train", render.IconTrain},
		{"bus", render.IconBus},
		{"car", render.IconCar},
		{"walk", render.IconWalk},
		{"hovercraft", render.IconFallback},
		{"", render.IconFallback},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, render.IconClass(tt.mode))
	}
}

func TestBuild_DaysShape(t *testing.T) {
	raw := `{
		"id": "it-1",
		"days": [
			{"day": 1, "title": "Arrival", "date": "2026-05-01", "legs": [
				{"mode": "flight", "from": {"name": "SFO", "time": "08:00"}, "to": {"name": "LAS", "time": "09:30"}, "duration_minutes": 90, "distance_miles": 414}
			]},
			{"day": 2, "legs": [
				{"mode": "car", "from": "Hotel", "to": "Red Rock", "duration_minutes": 35, "distance_miles": 17}
			]}
		]
	}`

	its, err := itinerary.Normalize(json.RawMessage(raw))
	require.NoError(t, err)
	require.Len(t, its, 1)

	m := render.Build(its[0])
	assert.Equal(t, "it-1", m.ID)
	assert.False(t, m.Empty)
	require.Len(t, m.Groups, 2)

	assert.Equal(t, "Day 1: Arrival", m.Groups[0].Heading)
	assert.Equal(t, "2026-05-01", m.Groups[0].Date)
	assert.Equal(t, "Day 2", m.Groups[1].Heading)

	leg := m.Groups[0].Legs[0]
	assert.Equal(t, render.IconPlane, leg.Icon)
	assert.Equal(t, "SFO", leg.From)
	assert.Equal(t, "08:00", leg.DepartTime)
	assert.Equal(t, "1h 30m", leg.Duration)

	assert.Equal(t, "2h 5m", m.Summary.Duration)
	assert.Equal(t, float64(431), m.Summary.DistanceMiles)
	assert.Equal(t, 2, m.Summary.TotalDays)
}

func TestBuild_FlatLegsRenderAsSingleGroup(t *testing.T) {
	its, err := itinerary.Normalize(json.RawMessage(
		`{"legs": [{"mode": "bus", "from": "A", "to": "B", "duration_minutes": 45}]}`))
	require.NoError(t, err)

	m := render.Build(its[0])
	require.Len(t, m.Groups, 1)
	assert.Equal(t, "Itinerary", m.Groups[0].Heading)
	assert.Zero(t, m.Groups[0].DayNumber)
	assert.Len(t, m.Groups[0].Legs, 1)
}

func TestBuild_EmptyItinerary(t *testing.T) {
	m := render.Build(itinerary.Itinerary{ID: "it-0", Shape: itinerary.ShapeEmpty})
	assert.True(t, m.Empty)
	assert.Empty(t, m.Groups)
	assert.Equal(t, "0h 0m", m.Summary.Duration)
}
