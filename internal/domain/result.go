package domain

import "time"

// IterationSummary counts what one iteration drained.
type IterationSummary struct {
	RunID     string         `json:"run_id"`
	Iteration int            `json:"iteration"`
	StartedAt time.Time      `json:"started_at"`
	Targets   int            `json:"targets"`
	Drained   int            `json:"drained"`
	Written   int            `json:"written"`
	Failed    int            `json:"failed"`
	Failures  map[string]int `json:"failures,omitempty"` // by failure kind
}

// Missing is the number of workers whose result never arrived before
// the drain timed out.
func (s IterationSummary) Missing() int {
	if m := s.Targets - s.Drained; m > 0 {
		return m
	}
	return 0
}
