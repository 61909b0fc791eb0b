package estimator

import (
	"math"
	"time"
)

// KEstimator maintains a windowed estimate of the monitored value's
// dispersion (std) and derives the CUSUM reference value k from it,
// recomputed on the same cadence and step-limited the same way as
// BaselineEstimator. Grounded on original_source/src/core/k_updater.py.
type KEstimator struct {
	win                 *window
	updateIntervalHours float64
	maxChangeRatio      float64
	baseN               int
	minDetectionRatio   float64
	targetShiftSigma    float64
	minK                float64

	std            float64
	hasStd         bool
	k              float64
	hasK           bool
	lastUpdateTime time.Time
	hasLastUpdate  bool
}

// NewKEstimator constructs a k (dispersion) estimator. targetShiftSigma
// drives the ARL-theoretic k = (targetShiftSigma/2) * std; passing a
// non-positive targetShiftSigma instead uses the traditional k = 4*std
// rule of thumb documented in the original.
func NewKEstimator(windowSize int, updateIntervalHours, maxChangeRatio float64, invalidRadius, baseN int, minDetectionRatio, targetShiftSigma, minK float64) *KEstimator {
	return &KEstimator{
		win:                 newWindow(windowSize, invalidRadius),
		updateIntervalHours: updateIntervalHours,
		maxChangeRatio:      maxChangeRatio,
		baseN:               baseN,
		minDetectionRatio:   minDetectionRatio,
		targetShiftSigma:    targetShiftSigma,
		minK:                minK,
	}
}

// Add appends a new observation and, if due, recomputes std and k. It
// returns the current k and whether one has formed.
func (e *KEstimator) Add(ts time.Time, value float64, isAlert bool, n int) (float64, bool) {
	lowThroughput := float64(n) < float64(e.baseN)*e.minDetectionRatio
	e.win.add(ts, value, n, isAlert, lowThroughput)

	if e.shouldUpdate(ts) {
		e.recompute(ts)
	}
	return e.k, e.hasK
}

func (e *KEstimator) shouldUpdate(ts time.Time) bool {
	if !e.hasLastUpdate {
		return e.win.full()
	}
	hoursSince := ts.Sub(e.lastUpdateTime).Hours()
	return hoursSince >= e.updateIntervalHours
}

func (e *KEstimator) recompute(ts time.Time) {
	valid := e.win.validValues()
	if len(valid) < 2 {
		return
	}

	newStd := stddev(valid)
	if e.hasStd {
		maxChange := math.Abs(e.std) * e.maxChangeRatio
		if maxChange == 0 {
			maxChange = e.maxChangeRatio
		}
		change := newStd - e.std
		if math.Abs(change) > maxChange {
			sign := 1.0
			if change < 0 {
				sign = -1.0
			}
			newStd = e.std + sign*maxChange
		}
	}

	e.std = newStd
	e.hasStd = true
	e.k = e.kFromStd(newStd)
	e.hasK = true
	e.lastUpdateTime = ts
	e.hasLastUpdate = true
}

func (e *KEstimator) kFromStd(std float64) float64 {
	var k float64
	if e.targetShiftSigma > 0 {
		k = (e.targetShiftSigma / 2.0) * std
	} else {
		k = 4.0 * std
	}
	if k < e.minK {
		k = e.minK
	}
	return k
}

// K returns the current reference value and whether one has formed.
func (e *KEstimator) K() (float64, bool) {
	return e.k, e.hasK
}

// Std returns the current dispersion estimate and whether one has formed.
func (e *KEstimator) Std() (float64, bool) {
	return e.std, e.hasStd
}

// StdFromBinomial computes sigma for a yield-type (binomial rate) sample
// from its proportion p and sample size n, per spec.md §4.1's yield
// dispersion model: sigma = sqrt(p(1-p)/n).
func StdFromBinomial(p float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	v := p * (1 - p) / float64(n)
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
