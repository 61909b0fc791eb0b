package manager

import "errors"

// ErrBadSample is returned when a sample is rejected at the ingest
// boundary (n <= 0, NaN value, or missing item). It never reaches or
// mutates a detector.
var ErrBadSample = errors.New("manager: bad sample")

// ErrUnknownKey is returned by Trajectory when no live detector exists for
// the key. It is a no-op signal, never an exception path.
var ErrUnknownKey = errors.New("manager: unknown key")
