package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FeedMessage is a broker-ready projection update: a partitioning key, a JSON
// payload, and transport headers.
type FeedMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// feedPayload is the wire form consumed by dashboard subscribers.
type feedPayload struct {
	County     string     `json:"county"`
	Outcome    Outcome    `json:"outcome"`
	Params     Params     `json:"params"`
	Projected  TimeSeries `json:"projected"`
	Summary    Summary    `json:"summary"`
	ComputedAt time.Time  `json:"computed_at"`
}

// SerializeProjection converts a projection into its feed message. The key
// joins county and outcome so updates for one pair stay ordered within a
// partition.
func SerializeProjection(p Projection) (FeedMessage, error) {
	value, err := json.Marshal(feedPayload{
		County:     p.County,
		Outcome:    p.Outcome,
		Params:     p.Params,
		Projected:  p.Projected,
		Summary:    p.Summary,
		ComputedAt: p.Summary.AsOf,
	})
	if err != nil {
		return FeedMessage{}, fmt.Errorf("serialize projection: %w", err)
	}

	return FeedMessage{
		Key:   []byte(p.County + "|" + string(p.Outcome)),
		Value: value,
		Headers: map[string]string{
			"county":      p.County,
			"outcome":     string(p.Outcome),
			"computed_at": p.Summary.AsOf.Format(time.RFC3339),
		},
	}, nil
}
