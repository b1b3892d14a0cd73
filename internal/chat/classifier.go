// Package chat classifies outgoing chat messages and raises activity
// signals for ones that look like itinerary requests.
package chat

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripsync/tripsync/internal/signalbus"
)

// DefaultKeywords mark a message as an itinerary request. Substring match,
// case-insensitive. A heuristic, not a contract: false positives only cost
// a temporary polling-speed change.
var DefaultKeywords = []string{"itinerary", "plan", "trip"}

// Classifier detects itinerary requests in chat text.
type Classifier struct {
	keywords []string
	broker   *signalbus.Broker
	logger   zerolog.Logger
}

// ClassifierConfig holds configuration for the classifier.
type ClassifierConfig struct {
	// Keywords to match (optional, defaults to DefaultKeywords).
	Keywords []string

	// Broker receives a signal per matched message (optional; nil makes
	// Observe classification-only).
	Broker *signalbus.Broker

	// Logger for classifier operations.
	Logger zerolog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Classifier{
		keywords: lowered,
		broker:   cfg.Broker,
		logger:   cfg.Logger,
	}
}

// IsItineraryRequest reports whether the message looks like an itinerary
// request.
func (c *Classifier) IsItineraryRequest(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Observe classifies an outgoing message and publishes an activity signal
// on a match. Returns the classification.
func (c *Classifier) Observe(content string) bool {
	if !c.IsItineraryRequest(content) {
		return false
	}
	c.logger.Debug().Msg("itinerary request detected in chat message")
	if c.broker != nil {
		c.broker.Publish(signalbus.Signal{})
	}
	return true
}
