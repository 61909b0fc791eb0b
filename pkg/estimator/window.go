// Package estimator implements the windowed baseline and k (dispersion)
// estimators of spec.md §4.2-4.3, grounded on
// original_source/src/core/baseline_updater.py and
// original_source/src/core/k_updater.py.
package estimator

import "time"

type point struct {
	ts    time.Time
	value float64
	n     int
}

// window is the fixed-capacity ordered sample buffer shared by the
// baseline and k estimators. It tracks which indices are "invalid" for
// statistics purposes: low-throughput points, and points within
// invalidRadius of an alerted point.
type window struct {
	capacity      int
	invalidRadius int
	points        []point
	alertIdx      map[int]bool
	lowThroughput map[int]bool
}

func newWindow(capacity, invalidRadius int) *window {
	return &window{
		capacity:      capacity,
		invalidRadius: invalidRadius,
		alertIdx:      make(map[int]bool),
		lowThroughput: make(map[int]bool),
	}
}

// add appends a point, marking it alerted and/or low-throughput as given,
// and evicts the oldest point (shifting all tracked indices down by one)
// if the window is now over capacity.
func (w *window) add(ts time.Time, value float64, n int, isAlert, isLowThroughput bool) {
	w.points = append(w.points, point{ts: ts, value: value, n: n})
	idx := len(w.points) - 1

	if isAlert {
		w.alertIdx[idx] = true
	}
	if isLowThroughput {
		w.lowThroughput[idx] = true
	}

	if len(w.points) > w.capacity {
		w.points = w.points[1:]
		w.alertIdx = shiftDown(w.alertIdx)
		w.lowThroughput = shiftDown(w.lowThroughput)
	}
}

func shiftDown(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for idx := range m {
		if idx > 0 {
			out[idx-1] = true
		}
	}
	return out
}

// full reports whether the window has reached its configured capacity.
func (w *window) full() bool {
	return len(w.points) >= w.capacity
}

func (w *window) lastTimestamp() time.Time {
	if len(w.points) == 0 {
		return time.Time{}
	}
	return w.points[len(w.points)-1].ts
}

// invalidIndices is the union of all low-throughput indices and the
// invalidRadius-wide neighborhood around every alerted index, per
// spec.md §4.2 step 3.
func (w *window) invalidIndices() map[int]bool {
	invalid := make(map[int]bool, len(w.lowThroughput))
	for idx := range w.lowThroughput {
		invalid[idx] = true
	}
	for alertIdx := range w.alertIdx {
		start := alertIdx - w.invalidRadius
		if start < 0 {
			start = 0
		}
		end := alertIdx + w.invalidRadius
		if end > len(w.points)-1 {
			end = len(w.points) - 1
		}
		for i := start; i <= end; i++ {
			invalid[i] = true
		}
	}
	return invalid
}

// validValues returns the values of all points not marked invalid.
func (w *window) validValues() []float64 {
	invalid := w.invalidIndices()
	out := make([]float64, 0, len(w.points))
	for idx, p := range w.points {
		if !invalid[idx] {
			out = append(out, p.value)
		}
	}
	return out
}
