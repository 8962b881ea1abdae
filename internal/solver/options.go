package solver

import "time"

// Options carries every tunable threshold and weight of a solve. The exact
// gap and adjacency thresholds varied across rotation seasons, so they are
// configuration, not constants.
type Options struct {
	Policy Policy

	MinGapMinutes        int
	ImpossibleGapMinutes []int
	IntensiveThreshold   int
	WorkloadDeltaLow     int
	WorkloadDeltaHigh    int

	FillWeight        float64
	ContinuityWeight  float64
	ConditionalWeight float64
	DeviationWeight   float64

	TimeBudget time.Duration
	Seed       int64
}

// DefaultOptions mirrors the thresholds observed in production rotations.
func DefaultOptions() Options {
	return Options{
		Policy:               PolicyHardWorkload,
		MinGapMinutes:        60,
		ImpossibleGapMinutes: []int{10, 20, 30, 40, 50},
		IntensiveThreshold:   10,
		WorkloadDeltaLow:     4,
		WorkloadDeltaHigh:    0,
		FillWeight:           100,
		ContinuityWeight:     5,
		ConditionalWeight:    3,
		DeviationWeight:      1,
		TimeBudget:           60 * time.Second,
	}
}
