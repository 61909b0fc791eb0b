package estimator

import (
	"math"
	"time"
)

// BaselineEstimator maintains an adaptive mean of the monitored value over
// a rolling window, recomputed at most once per UpdateInterval, with a
// step limiter bounding how far a single recompute may move the baseline.
// Grounded on original_source/src/core/baseline_updater.py.
type BaselineEstimator struct {
	win                 *window
	updateIntervalHours float64
	maxChangeRatio      float64
	baseN               int
	minDetectionRatio   float64

	current        float64
	hasCurrent     bool
	lastUpdateTime time.Time
	hasLastUpdate  bool
}

// NewBaselineEstimator constructs a baseline estimator with the given
// window capacity, recompute cadence, step limiter, alert-neighborhood
// radius, and low-throughput cutoff (baseN * minDetectionRatio).
func NewBaselineEstimator(windowSize int, updateIntervalHours, maxChangeRatio float64, invalidRadius, baseN int, minDetectionRatio float64) *BaselineEstimator {
	return &BaselineEstimator{
		win:                 newWindow(windowSize, invalidRadius),
		updateIntervalHours: updateIntervalHours,
		maxChangeRatio:      maxChangeRatio,
		baseN:               baseN,
		minDetectionRatio:   minDetectionRatio,
	}
}

// Add appends a new observation and, if the recompute condition is met,
// recomputes the baseline from the valid subset of the window and applies
// the step limiter. It returns the (possibly unchanged) current baseline.
func (b *BaselineEstimator) Add(ts time.Time, value float64, isAlert bool, n int) (float64, bool) {
	lowThroughput := float64(n) < float64(b.baseN)*b.minDetectionRatio
	b.win.add(ts, value, n, isAlert, lowThroughput)

	if b.shouldUpdate(ts) {
		b.recompute(ts)
	}
	return b.current, b.hasCurrent
}

func (b *BaselineEstimator) shouldUpdate(ts time.Time) bool {
	if !b.hasLastUpdate {
		return b.win.full()
	}
	hoursSince := ts.Sub(b.lastUpdateTime).Hours()
	return hoursSince >= b.updateIntervalHours
}

func (b *BaselineEstimator) recompute(ts time.Time) {
	valid := b.win.validValues()
	if len(valid) == 0 {
		return
	}

	newBaseline := mean(valid)
	if b.hasCurrent {
		maxChange := math.Abs(b.current) * b.maxChangeRatio
		if maxChange == 0 {
			maxChange = b.maxChangeRatio
		}
		change := newBaseline - b.current
		if math.Abs(change) > maxChange {
			sign := 1.0
			if change < 0 {
				sign = -1.0
			}
			newBaseline = b.current + sign*maxChange
		}
	}

	b.current = newBaseline
	b.hasCurrent = true
	b.lastUpdateTime = ts
	b.hasLastUpdate = true
}

// Get returns the current baseline estimate and whether one has formed.
func (b *BaselineEstimator) Get() (float64, bool) {
	return b.current, b.hasCurrent
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}
