package spc

import "time"

// timestampLayouts are tried in order; this covers the ISO-8601 variants
// the ingest boundary is required to accept (with or without a trailing Z,
// with or without fractional seconds).
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp attempts to parse raw as one of the accepted ISO-8601
// variants. It never errors: a parse failure is a graceful fallback
// signaled by the second return value being false, so the caller can
// substitute wall-clock time and continue processing the sample.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
