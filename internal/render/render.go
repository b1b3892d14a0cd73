// Package render maps canonical itineraries onto the model the dashboard's
// detail pane draws. Pure functions only; no timers, no network.
package render

import (
	"fmt"
	"math"

	"github.com/tripsync/tripsync/internal/itinerary"
)

// Icon classes per transport mode. Unrecognized modes get IconFallback.
const (
	IconPlane    = "icon-plane"
	IconTrain    = "icon-train"
	IconBus      = "icon-bus"
	IconCar      = "icon-car"
	IconWalk     = "icon-walk"
	IconFallback = "icon-calendar"
)

// LegView is one renderable leg row.
type LegView struct {
	Mode          string  `json:"mode"`
	Icon          string  `json:"icon"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	DepartTime    string  `json:"departTime,omitempty"`
	ArriveTime    string  `json:"arriveTime,omitempty"`
	Duration      string  `json:"duration"`
	DistanceMiles float64 `json:"distanceMiles"`
	Description   string  `json:"description,omitempty"`
}

// Group is one day header with its leg rows. Flat-legs itineraries render as
// a single ungrouped section (DayNumber 0).
type Group struct {
	Heading   string    `json:"heading"`
	DayNumber int       `json:"dayNumber,omitempty"`
	Date      string    `json:"date,omitempty"`
	Legs      []LegView `json:"legs"`
}

// SummaryView is the itinerary-wide totals row.
type SummaryView struct {
	Duration      string  `json:"duration"`
	DistanceMiles float64 `json:"distanceMiles"`
	TotalDays     int     `json:"totalDays"`
}

// Model is everything the detail pane needs for one itinerary.
type Model struct {
	ID      string      `json:"id"`
	Empty   bool        `json:"empty"`
	Groups  []Group     `json:"groups"`
	Summary SummaryView `json:"summary"`
}

// Build produces the render model for one itinerary.
func Build(it itinerary.Itinerary) Model {
	m := Model{
		ID:    it.ID,
		Empty: it.IsEmpty(),
		Summary: SummaryView{
			Duration:      FormatDuration(it.Summary.TotalDurationMinutes),
			DistanceMiles: it.Summary.TotalDistanceMiles,
			TotalDays:     it.Summary.TotalDays,
		},
	}

	for _, day := range it.Days {
		group := Group{
			Heading:   dayHeading(day),
			DayNumber: day.Number,
			Date:      day.Date,
			Legs:      legViews(day.Legs),
		}
		m.Groups = append(m.Groups, group)
	}

	if len(it.Days) == 0 && len(it.Legs) > 0 {
		m.Groups = append(m.Groups, Group{
			Heading: "Itinerary",
			Legs:    legViews(it.Legs),
		})
	}

	return m
}

// BuildAll maps a batch of itineraries in order.
func BuildAll(its []itinerary.Itinerary) []Model {
	models := make([]Model, 0, len(its))
	for _, it := range its {
		models = append(models, Build(it))
	}
	return models
}

func dayHeading(day itinerary.Day) string {
	if day.Title != "" {
		return fmt.Sprintf("Day %d: %s", day.Number, day.Title)
	}
	return fmt.Sprintf("Day %d", day.Number)
}

func legViews(legs []itinerary.Leg) []LegView {
	views := make([]LegView, 0, len(legs))
	for _, leg := range legs {
		views = append(views, LegView{
			Mode:          leg.Mode,
			Icon:          IconClass(leg.Mode),
			From:          leg.From.Name,
			To:            leg.To.Name,
			DepartTime:    leg.From.Time,
			ArriveTime:    leg.To.Time,
			Duration:      FormatDuration(leg.DurationMinutes),
			DistanceMiles: leg.DistanceMiles,
			Description:   leg.Description,
		})
	}
	return views
}

// IconClass returns the display icon class for a transport mode.
func IconClass(mode string) string {
	switch mode {
	case "flight", "plane":
		return IconPlane
	case "train":
		return IconTrain
	case "bus":
		return IconBus
	case "car":
		return IconCar
	case "walk":
		return IconWalk
	default:
		return IconFallback
	}
}

// FormatDuration renders minutes as "{hours}h {minutes}m".
func FormatDuration(minutes float64) string {
	total := int(math.Round(minutes))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
