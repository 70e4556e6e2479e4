package engine

import (
	"time"

	"github.com/pulsecrm/pulsecrm/pkg/models"
)

// Snapshot is the point-in-time view of a customer that every rule operates
// on. Interactions is expected to already be restricted to the model's
// trailing interaction window; Now anchors all relative-time arithmetic so
// identical snapshots always produce identical outputs.
type Snapshot struct {
	Profile      models.CustomerProfile
	Interactions []models.CustomerInteraction
	Now          time.Time
}

// DaysSinceLastInteraction returns the whole days elapsed since the profile's
// last interaction. ok is false when the customer has never interacted.
func (s Snapshot) DaysSinceLastInteraction() (days int, ok bool) {
	if s.Profile.LastInteractionDate == nil {
		return 0, false
	}
	d := s.Now.Sub(*s.Profile.LastInteractionDate)
	if d < 0 {
		return 0, true
	}
	return int(d.Hours() / 24), true
}

// AvgSentiment returns the mean raw sentiment over the snapshot's
// interactions. ok is false when the window holds no interactions.
func (s Snapshot) AvgSentiment() (avg float64, ok bool) {
	if len(s.Interactions) == 0 {
		return 0, false
	}
	var sum float64
	for _, it := range s.Interactions {
		sum += it.SentimentScore
	}
	return sum / float64(len(s.Interactions)), true
}

// CountWithinDays counts interactions dated within the trailing window of the
// given length.
func (s Snapshot) CountWithinDays(days int) int {
	cutoff := s.Now.AddDate(0, 0, -days)
	n := 0
	for _, it := range s.Interactions {
		if !it.InteractionDate.Before(cutoff) {
			n++
		}
	}
	return n
}
