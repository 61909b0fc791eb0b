package cusum

import (
	"testing"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

func scenarioCfg() spc.DetectorConfig {
	cfg := spc.DefaultGlobalConfig()
	cfg.Mu0 = 0.005
	cfg.BaseN = 1000
	cfg.TargetShiftSigma = 1.0
	cfg.TargetARL0 = 250
	cfg.MonitoringSide = spc.SideUpper
	cfg.ItemType = spc.ItemTypeYield
	cfg.MinK = 0.001
	cfg.PenaltyStrength = 0
	return cfg
}

func tsAt(i int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
}

func TestScenario1_ColdStartNoDrift(t *testing.T) {
	d := New(scenarioCfg())
	for i := 0; i < 50; i++ {
		alert, snap := d.Update(tsAt(i), 0.005, 1000)
		if alert {
			t.Fatalf("unexpected alert at step %d", i)
		}
		if snap.SPlus < 0 {
			t.Fatalf("S+ went negative at step %d: %v", i, snap.SPlus)
		}
		if snap.SPlus > 1e-6 {
			t.Fatalf("expected S+ to stay near 0 under no drift, got %v at step %d", snap.SPlus, i)
		}
	}
}

func TestScenario2_SingleUpperSpike(t *testing.T) {
	d := New(scenarioCfg())
	for i := 0; i < 5; i++ {
		if alert, _ := d.Update(tsAt(i), 0.005, 1000); alert {
			t.Fatalf("unexpected alert before the spike at step %d", i)
		}
	}
	alert, snap := d.Update(tsAt(5), 0.1, 1000)
	if !alert {
		t.Fatal("expected an alert on the spike")
	}
	if snap.AlertSide != spc.SideUpper {
		t.Errorf("expected alert_side=upper, got %q", snap.AlertSide)
	}
	if d.sPlus != 0 {
		t.Errorf("expected S+ reset to 0 after alert (FIR disabled), got %v", d.sPlus)
	}
}

func TestScenario3_LowThroughputSkip(t *testing.T) {
	cfg := scenarioCfg()
	cfg.BaseN = 500
	cfg.MinDetectionRatio = 0.15
	d := New(cfg)
	alert, snap := d.Update(tsAt(0), 0.1, 50)
	if alert {
		t.Fatal("expected no alert on a low-throughput sample")
	}
	if snap.SkipReason == "" {
		t.Error("expected skip_reason to be set")
	}
}

func TestScenario6_HotReloadThreshold(t *testing.T) {
	cfg := scenarioCfg()
	d := New(cfg)
	_, snap1 := d.Update(tsAt(0), 0.005, 1000)
	h1 := snap1.H

	cfg2 := cfg
	cfg2.TargetARL0 = 1000
	d.SetConfig(cfg2)

	_, snap2 := d.Update(tsAt(1), 0.005, 1000)
	h2 := snap2.H

	if !(h2 > h1) {
		t.Errorf("expected h to strictly increase after raising target_arl0: h1=%v h2=%v", h1, h2)
	}
}

func TestInvariant_AccumulatorsNeverNegative(t *testing.T) {
	cfg := scenarioCfg()
	cfg.MonitoringSide = spc.SideBoth
	d := New(cfg)
	values := []float64{0.005, 0.001, 0.009, 0.0, 0.02, 0.1, 0.005}
	for i, v := range values {
		_, snap := d.Update(tsAt(i), v, 1000)
		if snap.SPlus < 0 || snap.SMinus < 0 {
			t.Fatalf("accumulator went negative at step %d: S+=%v S-=%v", i, snap.SPlus, snap.SMinus)
		}
	}
}

func TestInvariant_UpperOnlySideKeepsLowerZero(t *testing.T) {
	cfg := scenarioCfg()
	cfg.MonitoringSide = spc.SideUpper
	d := New(cfg)
	for i := 0; i < 20; i++ {
		_, snap := d.Update(tsAt(i), 0.02, 1000)
		if snap.SMinus != 0 {
			t.Fatalf("expected S- to stay 0 for an upper-only detector, got %v at step %d", snap.SMinus, i)
		}
	}
}

func TestInvariant_ResetLeavesFIRSeedOrZero(t *testing.T) {
	cfg := scenarioCfg()
	cfg.UseFIR = spc.Bool(true)
	cfg.FIRRatio = 0.004
	cfg.FIRDuration = 700
	d := New(cfg)
	for i := 0; i < 5; i++ {
		d.Update(tsAt(i), 0.005, 1000)
	}
	_, snap := d.Update(tsAt(5), 0.1, 1000)
	if !snap.Alert {
		t.Fatal("expected the spike to alert")
	}
	expectedSeed := d.hBase * cfg.FIRRatio
	if d.sPlus != 0 && d.sPlus != expectedSeed {
		t.Errorf("expected S+ to be 0 or the FIR seed %v after reset, got %v", expectedSeed, d.sPlus)
	}
}

func TestLaw_ThresholdMultiplierAtBaseN(t *testing.T) {
	cfg := scenarioCfg()
	d := New(cfg)
	_, snap := d.Update(tsAt(0), 0.005, cfg.BaseN)
	if snap.ThresholdMult != 1 {
		t.Errorf("expected m=1 at n=base_n, got %v", snap.ThresholdMult)
	}
}

func TestLaw_ThresholdMultiplierAtQuarterBaseN(t *testing.T) {
	cfg := scenarioCfg()
	cfg.PenaltyStrength = 0
	d := New(cfg)
	_, snap := d.Update(tsAt(0), 0.005, cfg.BaseN/4)
	if diff := snap.ThresholdMult - 2.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected m=2 at n=base_n/4 with penalty_strength=0, got %v", snap.ThresholdMult)
	}
}

func TestARLDesign_MonotoneInDetector(t *testing.T) {
	cfgLow := scenarioCfg()
	cfgLow.TargetARL0 = 250
	cfgHigh := scenarioCfg()
	cfgHigh.TargetARL0 = 1000

	dLow := New(cfgLow)
	dHigh := New(cfgHigh)
	if !(dHigh.hBase > dLow.hBase) {
		t.Errorf("expected h_base to strictly increase with target_arl0: low=%v high=%v", dLow.hBase, dHigh.hBase)
	}

	cfgShiftLow := scenarioCfg()
	cfgShiftLow.TargetShiftSigma = 1.0
	cfgShiftHigh := scenarioCfg()
	cfgShiftHigh.TargetShiftSigma = 1.5

	dShiftLow := New(cfgShiftLow)
	dShiftHigh := New(cfgShiftHigh)
	if !(dShiftHigh.hBase < dShiftLow.hBase) {
		t.Errorf("expected h_base to strictly decrease with target_shift_sigma: low=%v high=%v", dShiftLow.hBase, dShiftHigh.hBase)
	}
}

func TestPureFunctionReplay(t *testing.T) {
	cfg := scenarioCfg()
	values := []float64{0.005, 0.004, 0.006, 0.1, 0.005, 0.005}
	run := func() []spc.Snapshot {
		d := New(cfg)
		var snaps []spc.Snapshot
		for i, v := range values {
			_, snap := d.Update(tsAt(i), v, 1000)
			snaps = append(snaps, snap)
		}
		return snaps
	}
	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected bitwise-identical replay at step %d:\n%+v\n%+v", i, a[i], b[i])
		}
	}
}
