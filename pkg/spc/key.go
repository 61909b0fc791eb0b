package spc

import "strings"

// Key is the composite detector identity: product/line/station/item,
// lowercased. Two samples route to the same detector iff their Key is
// equal.
type Key string

// MakeKey computes the composite detector key for an item observed under
// the given context. Missing context fields are substituted by
// "Unknown<Component>" once any context field is present; an entirely
// empty context degrades the key to the bare item identifier.
func MakeKey(item string, ctx Context) Key {
	if ctx.IsEmpty() {
		return Key(strings.ToLower(item))
	}

	product := ctx.Product
	if product == "" {
		product = "UnknownProduct"
	}
	line := ctx.Line
	if line == "" {
		line = "UnknownLine"
	}
	station := ctx.Station
	if station == "" {
		station = "UnknownStation"
	}

	parts := []string{product, line, station, item}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return Key(strings.Join(parts, "::"))
}

// Item extracts the bare item identifier from a composite key, i.e. the
// component after the last "::" separator, or the whole key if it never
// degraded from the bare item form.
func (k Key) Item() string {
	s := string(k)
	idx := strings.LastIndex(s, "::")
	if idx < 0 {
		return s
	}
	return s[idx+2:]
}

func (k Key) String() string { return string(k) }
