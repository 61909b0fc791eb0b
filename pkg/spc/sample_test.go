package spc

import "testing"

func TestContext_IsEmpty(t *testing.T) {
	if !(Context{}).IsEmpty() {
		t.Error("expected zero-value Context to be empty")
	}
	if (Context{Product: "ACME"}).IsEmpty() {
		t.Error("expected a Context with any field set to be non-empty")
	}
}

func TestSide_Monitors(t *testing.T) {
	cases := []struct {
		side         Side
		upper, lower bool
	}{
		{SideUpper, true, false},
		{SideLower, false, true},
		{SideBoth, true, true},
	}
	for _, c := range cases {
		if got := c.side.MonitorsUpper(); got != c.upper {
			t.Errorf("%s: MonitorsUpper()=%v, want %v", c.side, got, c.upper)
		}
		if got := c.side.MonitorsLower(); got != c.lower {
			t.Errorf("%s: MonitorsLower()=%v, want %v", c.side, got, c.lower)
		}
	}
}
