package progress

import (
	"time"

	"k8s.io/utils/clock"

	log "github.com/armadaproject/jointester/internal/common/logging"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

const unknownETA = "unknown"

// Status is the progress of a run after a flush.
type Status struct {
	Added          int64
	ElapsedSeconds int64
	// Rate is in records per second.
	Rate      int64
	Remaining int64
	// ETASeconds is only meaningful when ETAKnown is true.
	ETASeconds int64
	ETAKnown   bool
}

// Calculate derives rate and time to completion from the number of records added so far.
// elapsedSeconds must already be floored at one.
func Calculate(added, elapsedSeconds, totalPlanned int64) Status {
	s := Status{
		Added:          added,
		ElapsedSeconds: elapsedSeconds,
		Rate:           added / elapsedSeconds,
		Remaining:      totalPlanned - added,
	}
	if s.Rate > 0 {
		s.ETASeconds = s.Remaining / s.Rate
		s.ETAKnown = true
	}
	return s
}

// Formatter renders counts for the status line, e.g. with digit grouping.
type Formatter interface {
	FormatNumber(n int64) string
}

// Tracker reports throughput and projected completion after every flush. It has no effect on the run itself.
type Tracker struct {
	totalPlanned int64
	formatter    Formatter
	clock        clock.PassiveClock
	flushes      int
}

// NewTracker creates a Tracker for a run planning totalPlanned records.
func NewTracker(totalPlanned int64, formatter Formatter, clock clock.PassiveClock) *Tracker {
	return &Tracker{
		totalPlanned: totalPlanned,
		formatter:    formatter,
		clock:        clock,
	}
}

// Observe computes the status of runCtx at the current time and logs it.
func (t *Tracker) Observe(runCtx *model.RunContext) Status {
	t.flushes++
	status := Calculate(runCtx.Added(), t.elapsedSeconds(runCtx), t.totalPlanned)
	log.Infof(
		"Total docs indexed: %s, rate (docs/sec): %s. Projected end time (seconds from now): %s",
		t.formatter.FormatNumber(status.Added),
		t.formatter.FormatNumber(status.Rate),
		t.formatETA(status),
	)
	return status
}

// elapsedSeconds is whole seconds since the start plus one, so it is never zero.
func (t *Tracker) elapsedSeconds(runCtx *model.RunContext) int64 {
	return 1 + int64(t.clock.Since(runCtx.Start())/time.Second)
}

func (t *Tracker) formatETA(s Status) string {
	if !s.ETAKnown {
		return unknownETA
	}
	return t.formatter.FormatNumber(s.ETASeconds)
}

// Summary describes a finished run.
type Summary struct {
	Added    int64
	Flushes  int
	Duration time.Duration
	// MeanRate is in records per second over the whole run.
	MeanRate float64
}

// Summary reports the run so far from the flushes this Tracker has observed.
func (t *Tracker) Summary(runCtx *model.RunContext) Summary {
	duration := t.clock.Since(runCtx.Start())
	s := Summary{
		Added:    runCtx.Added(),
		Flushes:  t.flushes,
		Duration: duration,
	}
	if duration > 0 {
		s.MeanRate = float64(s.Added) / duration.Seconds()
	}
	return s
}
