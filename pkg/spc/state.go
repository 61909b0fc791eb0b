package spc

import "time"

// State is the restorable portion of a detector's internal state, exactly
// the set_state/get_state payload of spec.md §4.4. Estimator windows are
// deliberately not part of this payload: they rewarm from new data after
// a restore, per spec.md §9.
type State struct {
	Baseline    float64   `json:"baseline"`
	Std         float64   `json:"std"`
	K           float64   `json:"k"`
	SPlus       float64   `json:"s_plus"`
	SMinus      float64   `json:"s_minus"`
	LastDataTS  time.Time `json:"last_data_ts"`
}

// Snapshot is the annotated record of one detector update step, used for
// the trajectory cache, cooldown evaluation, and the record log.
type Snapshot struct {
	Key           Key       `json:"key"`
	Timestamp     time.Time `json:"timestamp"`
	Value         float64   `json:"value"`
	Throughput    int       `json:"throughput"`
	Baseline      float64   `json:"baseline"`
	K             float64   `json:"k"`
	H             float64   `json:"h"`
	SPlus         float64   `json:"s_plus"`
	SMinus        float64   `json:"s_minus"`
	Std           float64   `json:"std"`
	ThresholdMult float64   `json:"threshold_multiplier"`
	Alert         bool      `json:"alert"`
	AlertSide     Side      `json:"alert_side,omitempty"`
	SkipReason    string    `json:"skip_reason,omitempty"`
	FIRActive     bool      `json:"fir_active"`
	PushExecuted  bool      `json:"push_executed"`
}
