package spc

import "fmt"

// Bool returns a pointer to b, for populating DetectorConfig's tri-state
// boolean fields (e.g. spc.Bool(false) to explicitly disable a setting a
// lower-precedence layer enabled).
func Bool(b bool) *bool { return &b }

// DetectorConfig carries the per-detector tuning knobs. A zero value in a
// numeric or string field means "not set": Merge keeps the lower layer's
// value for it. EnableCooldown/UseFIR/UseEWMA are *bool
// rather than bool: nil means "not set, inherit the lower layer", while a
// non-nil false is a deliberate override that must stick even when a lower
// layer set the same field true.
type DetectorConfig struct {
	Mu0               float64  `json:"mu0"`
	BaseN             int      `json:"base_n"`
	TargetShiftSigma  float64  `json:"target_shift_sigma"`
	TargetARL0        float64  `json:"target_arl0"`
	MonitoringSide    Side     `json:"monitoring_side"`
	PenaltyStrength   float64  `json:"penalty_strength"`
	CooldownPeriods   int      `json:"cooldown_periods"`
	EnableCooldown    *bool    `json:"enable_cooldown"`
	ItemType          ItemType `json:"item_type"`

	UseFIR      *bool   `json:"use_fir"`
	FIRRatio    float64 `json:"fir_ratio"`
	FIRDuration int     `json:"fir_duration"`

	UseEWMA    *bool   `json:"use_ewma"`
	EWMALambda float64 `json:"ewma_lambda"`

	WindowSize          int     `json:"window_size"`
	UpdateIntervalHours float64 `json:"update_interval_hours"`
	MaxChangeRatio      float64 `json:"max_change_ratio"`
	InvalidRadius       int     `json:"invalid_radius"`
	MinDetectionRatio   float64 `json:"min_detection_ratio"`
	MinNRatio           float64 `json:"min_n_ratio"`
	MinK                float64 `json:"min_k"`
}

// DefaultGlobalConfig returns the package's built-in defaults, mirroring
// the constants the original implementation wires into
// AdaptiveCUSUMDetector/AdaptiveBaseline/AdaptiveKUpdater.
func DefaultGlobalConfig() DetectorConfig {
	return DetectorConfig{
		Mu0:                 0.0005,
		BaseN:               500,
		TargetShiftSigma:    1.0,
		TargetARL0:          250.0,
		MonitoringSide:      SideUpper,
		PenaltyStrength:     1.0,
		CooldownPeriods:     6,
		EnableCooldown:      Bool(true),
		ItemType:            ItemTypeYield,
		UseFIR:              Bool(false),
		FIRRatio:            0.004,
		FIRDuration:         700,
		UseEWMA:             Bool(false),
		EWMALambda:          0.2,
		WindowSize:          700,
		UpdateIntervalHours: 24,
		MaxChangeRatio:      0.1,
		InvalidRadius:       10,
		MinDetectionRatio:   0.15,
		MinNRatio:           0.5,
		MinK:                0.001,
	}
}

// CooldownEnabled resolves EnableCooldown, defaulting to true when unset
// (a fully zero-value DetectorConfig should behave like the package default).
func (c DetectorConfig) CooldownEnabled() bool {
	return c.EnableCooldown == nil || *c.EnableCooldown
}

// FIREnabled resolves UseFIR, defaulting to false when unset.
func (c DetectorConfig) FIREnabled() bool {
	return c.UseFIR != nil && *c.UseFIR
}

// EWMAEnabled resolves UseEWMA, defaulting to false when unset.
func (c DetectorConfig) EWMAEnabled() bool {
	return c.UseEWMA != nil && *c.UseEWMA
}

// Validate checks the invariants spec.md §3 places on a DetectorConfig.
func (c DetectorConfig) Validate() error {
	if c.BaseN <= 0 {
		return fmt.Errorf("spc: base_n must be > 0, got %d", c.BaseN)
	}
	if c.TargetShiftSigma <= 0 {
		return fmt.Errorf("spc: target_shift_sigma must be > 0, got %v", c.TargetShiftSigma)
	}
	if c.TargetARL0 < 1 {
		return fmt.Errorf("spc: target_arl0 must be >= 1, got %v", c.TargetARL0)
	}
	if c.PenaltyStrength < 0 || c.PenaltyStrength > 5 {
		return fmt.Errorf("spc: penalty_strength out of bounds, got %v", c.PenaltyStrength)
	}
	switch c.MonitoringSide {
	case SideUpper, SideLower, SideBoth:
	default:
		return fmt.Errorf("spc: invalid monitoring_side %q", c.MonitoringSide)
	}
	switch c.ItemType {
	case ItemTypeYield, ItemTypeParameter:
	default:
		return fmt.Errorf("spc: invalid item_type %q", c.ItemType)
	}
	return nil
}

// Merge overlays non-zero fields of override onto a copy of c (the
// defaults), implementing the precedence chain of spec.md §4.5: caller
// override > persisted per-key > persisted bare-item > global defaults.
// Each layer is merged in turn with this method, outermost last.
func (c DetectorConfig) Merge(override DetectorConfig) DetectorConfig {
	out := c
	if override.Mu0 != 0 {
		out.Mu0 = override.Mu0
	}
	if override.BaseN != 0 {
		out.BaseN = override.BaseN
	}
	if override.TargetShiftSigma != 0 {
		out.TargetShiftSigma = override.TargetShiftSigma
	}
	if override.TargetARL0 != 0 {
		out.TargetARL0 = override.TargetARL0
	}
	if override.MonitoringSide != "" {
		out.MonitoringSide = override.MonitoringSide
	}
	if override.PenaltyStrength != 0 {
		out.PenaltyStrength = override.PenaltyStrength
	}
	if override.CooldownPeriods != 0 {
		out.CooldownPeriods = override.CooldownPeriods
	}
	if override.EnableCooldown != nil {
		out.EnableCooldown = override.EnableCooldown
	}
	if override.ItemType != "" {
		out.ItemType = override.ItemType
	}
	if override.UseFIR != nil {
		out.UseFIR = override.UseFIR
	}
	if override.FIRRatio != 0 {
		out.FIRRatio = override.FIRRatio
	}
	if override.FIRDuration != 0 {
		out.FIRDuration = override.FIRDuration
	}
	if override.UseEWMA != nil {
		out.UseEWMA = override.UseEWMA
	}
	if override.EWMALambda != 0 {
		out.EWMALambda = override.EWMALambda
	}
	if override.WindowSize != 0 {
		out.WindowSize = override.WindowSize
	}
	if override.UpdateIntervalHours != 0 {
		out.UpdateIntervalHours = override.UpdateIntervalHours
	}
	if override.MaxChangeRatio != 0 {
		out.MaxChangeRatio = override.MaxChangeRatio
	}
	if override.InvalidRadius != 0 {
		out.InvalidRadius = override.InvalidRadius
	}
	if override.MinDetectionRatio != 0 {
		out.MinDetectionRatio = override.MinDetectionRatio
	}
	if override.MinNRatio != 0 {
		out.MinNRatio = override.MinNRatio
	}
	if override.MinK != 0 {
		out.MinK = override.MinK
	}
	return out
}
