// Package cusum implements the adaptive CUSUM detector, the per-key state
// machine at the center of the engine. Grounded on
// original_source/src/core/adaptive_cusum.py and restructured in the shape
// of the teacher's pkg/learning/cusum.go: a struct holding algorithm
// parameters plus state, an Update method returning a decision, and
// GetState/SetState for checkpointing.
package cusum

import (
	"math"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/arl"
	"github.com/sentryline/spc-cusum-engine/pkg/estimator"
	"github.com/sentryline/spc-cusum-engine/pkg/learning"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// RunState names the detector's coarse lifecycle stage, carried on the
// snapshot for observability only; the accumulation math does not branch
// on it. The fallback to mu0/min_k depends on whether the estimators have
// produced values yet, not on this stage.
type RunState string

const (
	StateCold    RunState = "cold"
	StateWarming RunState = "warming"
	StateRunning RunState = "running"
)

// parameterStdFallback is used as sigma_raw for parameter-type items before
// the k-estimator has produced a dispersion estimate of its own; it mirrors
// the literal fallback constant in the original implementation.
const parameterStdFallback = 3.0

// Detector is one per-key adaptive CUSUM state machine.
type Detector struct {
	cfg spc.DetectorConfig

	hBase float64 // decision threshold in sigma units, from the ARL designer

	baselineEst *estimator.BaselineEstimator
	kEst        *estimator.KEstimator

	ewmaSmoother *learning.EWMA
	hasEWMA      bool

	baseline    float64
	hasBaseline bool
	kRef        float64
	hasK        bool
	stdRaw      float64
	hasStd      bool

	sPlus, sMinus     float64
	samplesSinceReset int
	totalSamples      int
	firActive         bool

	state        RunState
	lastDecision spc.Snapshot
	lastDataTS   time.Time
}

// New constructs a Detector from a fully-resolved configuration.
func New(cfg spc.DetectorConfig) *Detector {
	d := &Detector{
		cfg:   cfg,
		state: StateCold,
	}
	d.rebuildEstimators()
	d.RecomputeDesign()
	return d
}

func (d *Detector) rebuildEstimators() {
	c := d.cfg
	d.baselineEst = estimator.NewBaselineEstimator(c.WindowSize, c.UpdateIntervalHours, c.MaxChangeRatio, c.InvalidRadius, c.BaseN, c.MinDetectionRatio)
	d.kEst = estimator.NewKEstimator(c.WindowSize, c.UpdateIntervalHours, c.MaxChangeRatio, c.InvalidRadius, c.BaseN, c.MinDetectionRatio, c.TargetShiftSigma, c.MinK)
	if d.ewmaSmoother == nil {
		d.ewmaSmoother = learning.NewEWMA(c.EWMALambda)
	} else {
		d.ewmaSmoother.SetAlpha(c.EWMALambda)
	}
}

// RecomputeDesign refreshes hBase from the current target_shift_sigma and
// target_arl0. It is a setter side-effect: call it after any change to
// those two fields. Accumulators are untouched.
func (d *Detector) RecomputeDesign() {
	_, h := arl.Design(d.cfg.TargetShiftSigma, d.cfg.TargetARL0)
	d.hBase = h
}

// SetConfig hot-reloads the detector's tuning. The estimator windows are
// rebuilt against the new window/update-interval/radius knobs (they rewarm
// from new data, same as after a SetState restore); S+/S- are left alone.
func (d *Detector) SetConfig(cfg spc.DetectorConfig) {
	d.cfg = cfg
	d.rebuildEstimators()
	d.RecomputeDesign()
}

// Config returns the detector's current resolved configuration.
func (d *Detector) Config() spc.DetectorConfig { return d.cfg }

// State reports the detector's coarse lifecycle stage.
func (d *Detector) State() RunState { return d.state }

func (d *Detector) currentBaseline() float64 {
	if d.cfg.EWMAEnabled() && d.hasEWMA {
		return d.ewmaSmoother.GetCurrent()
	}
	if d.hasBaseline {
		return d.baseline
	}
	return d.cfg.Mu0
}

func (d *Detector) currentK() float64 {
	if d.hasK {
		return d.kRef
	}
	return d.cfg.MinK
}

func (d *Detector) currentStdRaw() float64 {
	if d.hasStd {
		return d.stdRaw
	}
	return parameterStdFallback
}

// Update consumes one sample and returns whether it alerted plus the
// annotated decision snapshot. n is the sample's throughput.
func (d *Detector) Update(ts time.Time, value float64, n int) (bool, spc.Snapshot) {
	if d.state == StateCold {
		d.state = StateWarming
	}
	d.totalSamples++
	d.samplesSinceReset++
	d.lastDataTS = ts

	lowThroughput := d.cfg.BaseN > 0 && float64(n) < d.cfg.MinDetectionRatio*float64(d.cfg.BaseN)
	if lowThroughput {
		d.feedEstimators(ts, value, n, false)
		snap := spc.Snapshot{
			Key:        d.lastDecision.Key,
			Timestamp:  ts,
			Value:      value,
			Throughput: n,
			Baseline:   d.currentBaseline(),
			K:          d.currentK(),
			SPlus:      d.sPlus,
			SMinus:     d.sMinus,
			SkipReason: "low_throughput",
			FIRActive:  d.firActive,
		}
		d.lastDecision = snap
		return false, snap
	}

	// Feed the estimators before reading them back: baseline/k may recompute
	// on this very sample (window just filled, or the update interval just
	// elapsed), and the CUSUM math below must run against that fresh value,
	// not the one-step-stale value from before this sample arrived. The
	// alert flag isn't known yet at feed time, so isAlert is always false here.
	d.feedEstimators(ts, value, n, false)

	baseline := d.currentBaseline()
	kRef := d.currentK()

	var sigmaBase, sigmaCur float64
	switch d.cfg.ItemType {
	case spc.ItemTypeYield:
		mu := baseline
		sigmaBase = math.Sqrt(mu * (1 - mu) / float64(d.cfg.BaseN))
		sigmaCur = math.Sqrt(mu * (1 - mu) / float64(n))
	default:
		sigmaRaw := d.currentStdRaw()
		sigmaBase = sigmaRaw / math.Sqrt(float64(d.cfg.BaseN))
		sigmaCur = sigmaRaw / math.Sqrt(float64(n))
	}

	degenerate := sigmaBase == 0 || sigmaCur == 0 || math.IsNaN(sigmaBase) || math.IsNaN(sigmaCur)

	m := 1.0
	if !degenerate {
		m = sigmaCur / sigmaBase
		ratio := float64(n) / float64(d.cfg.BaseN)
		if ratio < d.cfg.MinNRatio {
			arg := d.cfg.MinNRatio*float64(d.cfg.BaseN)/float64(n) - 1
			if arg < 0 {
				arg = 0
			}
			penalty := math.Sqrt(arg)
			m *= 1 + d.cfg.PenaltyStrength*penalty
		}
	}

	var xhat, khat, hhat float64
	if degenerate {
		m = 1
		xhat = value - baseline
		khat = kRef
		hhat = d.hBase
	} else {
		xhat = (value - baseline) / sigmaCur
		khat = kRef / sigmaCur
		hhat = d.hBase * m
	}

	side := d.cfg.MonitoringSide
	if side.MonitorsUpper() {
		d.sPlus = math.Max(0, d.sPlus+(xhat-khat))
	}
	if side.MonitorsLower() {
		d.sMinus = math.Max(0, d.sMinus+(-xhat-khat))
	}
	if d.sPlus < 0 || d.sMinus < 0 {
		panic("cusum: accumulator negative after update")
	}

	alertUpper := side.MonitorsUpper() && d.sPlus >= hhat
	alertLower := side.MonitorsLower() && d.sMinus >= hhat
	alert := alertUpper || alertLower

	var alertSide spc.Side
	if alertUpper {
		alertSide = spc.SideUpper
	} else if alertLower {
		alertSide = spc.SideLower
	}

	snap := spc.Snapshot{
		Key:           d.lastDecision.Key,
		Timestamp:     ts,
		Value:         value,
		Throughput:    n,
		Baseline:      baseline,
		K:             kRef,
		H:             hhat,
		SPlus:         d.sPlus,
		SMinus:        d.sMinus,
		Std:           sigmaCur,
		ThresholdMult: m,
		Alert:         alert,
		AlertSide:     alertSide,
		FIRActive:     d.firActive,
	}

	if alert {
		d.reset()
		d.state = StateRunning
	} else if d.state == StateWarming && d.hasBaseline && d.hasK {
		d.state = StateRunning
	}

	if d.firActive && d.samplesSinceReset >= d.cfg.FIRDuration {
		d.firActive = false
	}

	d.lastDecision = snap
	return alert, snap
}

func (d *Detector) feedEstimators(ts time.Time, value float64, n int, isAlert bool) {
	if d.cfg.EWMAEnabled() {
		d.ewmaSmoother.Update(value)
		d.hasEWMA = true
	}
	if b, ok := d.baselineEst.Add(ts, value, isAlert, n); ok {
		d.baseline = b
		d.hasBaseline = true
	}
	if k, ok := d.kEst.Add(ts, value, isAlert, n); ok {
		d.kRef = k
		d.hasK = true
	}
	if s, ok := d.kEst.Std(); ok {
		d.stdRaw = s
		d.hasStd = true
	}
}

// reset zeroes S+/S- (or seeds them with the FIR head-start) and restarts
// the samples-since-reset counter, per the Reset transition.
func (d *Detector) reset() {
	side := d.cfg.MonitoringSide
	d.sPlus = 0
	d.sMinus = 0
	if d.cfg.FIREnabled() {
		seed := d.hBase * d.cfg.FIRRatio
		if side.MonitorsUpper() {
			d.sPlus = seed
		}
		if side.MonitorsLower() {
			d.sMinus = seed
		}
		d.firActive = true
	} else {
		d.firActive = false
	}
	d.samplesSinceReset = 0
}

// Reset forces the Reset transition without an alert having fired. Used by
// operator-triggered or test-driven resets.
func (d *Detector) Reset() { d.reset() }

// GetState returns the restorable portion of the detector's state.
func (d *Detector) GetState() spc.State {
	return spc.State{
		Baseline:   d.currentBaseline(),
		Std:        d.currentStdRaw(),
		K:          d.currentK(),
		SPlus:      d.sPlus,
		SMinus:     d.sMinus,
		LastDataTS: d.lastDataTS,
	}
}

// SetState restores a checkpointed state. Estimator windows are not
// rehydrated; they rewarm from subsequent samples, per spec.
func (d *Detector) SetState(s spc.State) {
	d.baseline = s.Baseline
	d.hasBaseline = true
	d.stdRaw = s.Std
	d.hasStd = true
	d.kRef = s.K
	d.hasK = true
	d.sPlus = s.SPlus
	d.sMinus = s.SMinus
	d.lastDataTS = s.LastDataTS
	if d.cfg.EWMAEnabled() {
		d.ewmaSmoother.Reset()
		d.ewmaSmoother.Update(s.Baseline)
		d.hasEWMA = true
	}
	d.state = StateRunning
}
