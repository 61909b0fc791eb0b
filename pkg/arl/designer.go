// Package arl derives CUSUM design parameters (k, h) from an Average Run
// Length target, grounded on original_source/src/core/adaptive_cusum.py's
// _recalculate_h and src/utils/arl_calculator.py's table/approximation
// methods.
package arl

import "math"

// Design converts a target minimum shift (in sigma units) and a target
// in-control Average Run Length into CUSUM reference value k and decision
// threshold h, both in sigma units.
//
// k = shiftSigma/2. h uses the fast closed-form shortcut
// h = (2/shiftSigma^2)*ln(arl0), matching the original implementation's
// own recompute path; it is equivalent in spirit to the Brook & Evans
// approximation ARL0 ~= exp(2k(h-k)) / (2k(h-k)) that Approximate below
// implements directly for callers that need the inverse relation.
func Design(shiftSigma, arl0 float64) (k, h float64) {
	k = shiftSigma / 2.0
	if shiftSigma <= 0 {
		return k, 11.04 // documented fallback standard value
	}
	h = (2.0 / (shiftSigma * shiftSigma)) * math.Log(arl0)
	return k, h
}

// Approximate returns the theoretical in-control ARL for a given k and h
// using the Brook & Evans closed-form approximation
// ARL0 ~= exp(2k(h-k)) / (2k(h-k)), used by approxHForARL below to solve
// for h when DesignFromTable has no table entry to interpolate.
func Approximate(k, h float64) float64 {
	denom := 2.0 * k * (h - k)
	if math.Abs(denom) < 1e-9 {
		return 1e4
	}
	return math.Exp(denom) / denom
}

// tableK05 holds NIST/SEMATECH precomputed (h -> ARL0) pairs for k=0.5,
// mirroring ARLCalculator.ARL_TABLE_K0_5 in the original implementation.
var tableK05 = map[float64]float64{
	3.0: 30.0,
	3.5: 80.0,
	4.0: 370.4,
	4.5: 1000.0,
	5.0: 629.5,
	5.5: 2500.0,
}

var tableK025 = map[float64]float64{
	3.0: 10.0,
	3.5: 25.0,
	4.0: 93.7,
	4.5: 220.0,
	5.0: 157.4,
	5.5: 350.0,
}

var tableK075 = map[float64]float64{
	3.5: 150.0,
	4.0: 400.0,
	4.5: 1000.0,
	5.0: 2000.0,
}

// DesignFromTable derives h for a target ARL0 at one of the precomputed
// reference values k in {0.25, 0.5, 0.75} by linear interpolation over the
// table, falling back to the closed-form approximation outside those k
// values or outside the table's h range.
func DesignFromTable(k, arl0 float64) float64 {
	var table map[float64]float64
	switch {
	case math.Abs(k-0.5) < 0.01:
		table = tableK05
	case math.Abs(k-0.25) < 0.01:
		table = tableK025
	case math.Abs(k-0.75) < 0.01:
		table = tableK075
	default:
		return approxHForARL(k, arl0)
	}
	if h, ok := interpolateH(table, arl0); ok {
		return h
	}
	return approxHForARL(k, arl0)
}

// interpolateH inverts the (h -> arl0) table to find h for a target arl0,
// walking the table in increasing h order and linearly interpolating
// between bracketing ARL0 values. It reports false when targetARL0 lies
// outside the ARL0 values at the table's smallest and largest h.
func interpolateH(table map[float64]float64, targetARL0 float64) (float64, bool) {
	hs := make([]float64, 0, len(table))
	for h := range table {
		hs = append(hs, h)
	}
	sortFloats(hs)

	arlFirst, arlLast := table[hs[0]], table[hs[len(hs)-1]]
	if targetARL0 < arlFirst || targetARL0 > arlLast {
		return 0, false
	}
	for i := 0; i < len(hs)-1; i++ {
		h1, h2 := hs[i], hs[i+1]
		arl1, arl2 := table[h1], table[h2]
		lo, hi := arl1, arl2
		if lo > hi {
			lo, hi = hi, lo
		}
		if targetARL0 >= lo && targetARL0 <= hi {
			if arl2 == arl1 {
				return h1, true
			}
			frac := (targetARL0 - arl1) / (arl2 - arl1)
			return h1 + frac*(h2-h1), true
		}
	}
	return hs[len(hs)-1], true
}

func approxHForARL(k, arl0 float64) float64 {
	// Binary search h such that Approximate(k, h) ~= arl0; the
	// approximation is monotonically increasing in h for h > k.
	lo, hi := k+1e-6, k+50.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2
		if Approximate(k, mid) < arl0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
