package estimator

import (
	"testing"
	"time"
)

func TestBaselineEstimator_NoValueBeforeWindowFull(t *testing.T) {
	b := NewBaselineEstimator(5, 24, 0.1, 1, 10, 0.15)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, ok := b.Add(base.Add(time.Duration(i)*time.Hour), 1.0, false, 10); ok {
			t.Fatalf("expected no baseline before window is full, got one at i=%d", i)
		}
	}
}

func TestBaselineEstimator_FormsOnWindowFull(t *testing.T) {
	b := NewBaselineEstimator(5, 24, 0.5, 1, 10, 0.15)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var got float64
	var ok bool
	for i := 0; i < 5; i++ {
		got, ok = b.Add(base.Add(time.Duration(i)*time.Hour), 2.0, false, 10)
	}
	if !ok {
		t.Fatal("expected baseline to have formed once window is full")
	}
	if got != 2.0 {
		t.Errorf("expected baseline 2.0, got %v", got)
	}
}

func TestBaselineEstimator_SkipsUpdateBeforeInterval(t *testing.T) {
	b := NewBaselineEstimator(3, 24, 1.0, 1, 10, 0.15)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Add(base, 1.0, false, 10)
	b.Add(base.Add(time.Hour), 1.0, false, 10)
	_, ok := b.Add(base.Add(2*time.Hour), 1.0, false, 10)
	if !ok {
		t.Fatal("expected initial baseline to form at window full")
	}

	got, _ := b.Add(base.Add(3*time.Hour), 100.0, false, 10)
	if got != 1.0 {
		t.Errorf("expected baseline unchanged before update interval elapses, got %v", got)
	}
}

func TestBaselineEstimator_StepLimiterCapsChange(t *testing.T) {
	b := NewBaselineEstimator(3, 0, 0.1, 1, 10, 0.15)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Add(base, 10.0, false, 10)
	b.Add(base.Add(time.Hour), 10.0, false, 10)
	b.Add(base.Add(2*time.Hour), 10.0, false, 10)

	got, ok := b.Add(base.Add(3*time.Hour), 1000.0, false, 10)
	if !ok {
		t.Fatal("expected baseline to have formed")
	}
	maxExpected := 10.0 * 1.1
	if got > maxExpected+1e-9 {
		t.Errorf("expected step-limited baseline <= %v, got %v", maxExpected, got)
	}
}

func TestBaselineEstimator_ExcludesAlertNeighborhood(t *testing.T) {
	b := NewBaselineEstimator(5, 0, 10.0, 1, 10, 0.15)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Add(base, 1.0, false, 10)
	b.Add(base.Add(time.Hour), 1.0, false, 10)
	b.Add(base.Add(2*time.Hour), 999.0, true, 10)
	b.Add(base.Add(3*time.Hour), 1.0, false, 10)
	got, ok := b.Add(base.Add(4*time.Hour), 1.0, false, 10)
	if !ok {
		t.Fatal("expected baseline to have formed")
	}
	if got != 1.0 {
		t.Errorf("expected alert-neighborhood excluded from baseline mean, got %v", got)
	}
}

func TestBaselineEstimator_ExcludesLowThroughput(t *testing.T) {
	b := NewBaselineEstimator(3, 0, 10.0, 0, 10, 0.5)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Add(base, 1.0, false, 10)
	b.Add(base.Add(time.Hour), 1.0, false, 10)
	got, ok := b.Add(base.Add(2*time.Hour), 999.0, false, 1)
	if !ok {
		t.Fatal("expected baseline to have formed")
	}
	if got != 1.0 {
		t.Errorf("expected low-throughput point excluded from baseline mean, got %v", got)
	}
}
