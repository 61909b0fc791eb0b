package arl

import "testing"

func TestDesign_KIsHalfShift(t *testing.T) {
	k, _ := Design(1.0, 250.0)
	if k != 0.5 {
		t.Errorf("expected k=0.5, got %v", k)
	}
}

func TestDesign_HIncreasesWithARL0(t *testing.T) {
	_, h1 := Design(1.0, 250.0)
	_, h2 := Design(1.0, 1000.0)
	if !(h2 > h1) {
		t.Errorf("expected h to strictly increase with target_arl0: h1=%v h2=%v", h1, h2)
	}
}

func TestDesign_HDecreasesWithShiftSigma(t *testing.T) {
	_, h1 := Design(1.0, 250.0)
	_, h2 := Design(1.5, 250.0)
	if !(h2 < h1) {
		t.Errorf("expected h to strictly decrease with target_shift_sigma: h1=%v h2=%v", h1, h2)
	}
}

func TestDesign_Idempotent(t *testing.T) {
	k1, h1 := Design(1.0, 250.0)
	k2, h2 := Design(1.0, 250.0)
	if k1 != k2 || h1 != h2 {
		t.Errorf("expected idempotent recomputation, got (%v,%v) then (%v,%v)", k1, h1, k2, h2)
	}
}

func TestDesignFromTable_K05Interpolates(t *testing.T) {
	h := DesignFromTable(0.5, 370.4)
	if h < 3.9 || h > 4.1 {
		t.Errorf("expected h near 4.0 for ARL0=370.4 at k=0.5, got %v", h)
	}
}

func TestDesignFromTable_OffTableKFallsBackToApprox(t *testing.T) {
	h := DesignFromTable(0.6, 370.4)
	arl := Approximate(0.6, h)
	if arl < 300 || arl > 450 {
		t.Errorf("expected approximate ARL near target, got %v (h=%v)", arl, h)
	}
}
