package spc

import "testing"

func TestMakeKey_FullContextLowercased(t *testing.T) {
	k := MakeKey("Widget", Context{Product: "ACME", Line: "L1", Station: "S2"})
	if k != "acme::l1::s2::widget" {
		t.Errorf("expected lowercased composite key, got %q", k)
	}
}

func TestMakeKey_EmptyContextCollapsesToBareItem(t *testing.T) {
	k := MakeKey("Widget", Context{})
	if k != "widget" {
		t.Errorf("expected bare lowercased item, got %q", k)
	}
}

func TestMakeKey_PartialContextSubstitutesUnknown(t *testing.T) {
	k := MakeKey("widget", Context{Product: "ACME"})
	if k != "acme::unknownline::unknownstation::widget" {
		t.Errorf("expected Unknown<Component> substitution, got %q", k)
	}
}

func TestMakeKey_CaseInsensitive(t *testing.T) {
	a := MakeKey("Widget", Context{Product: "ACME", Line: "L1", Station: "S2"})
	b := MakeKey("widget", Context{Product: "acme", Line: "l1", Station: "s2"})
	if a != b {
		t.Errorf("expected keys to be case-insensitive: %q vs %q", a, b)
	}
}

func TestKey_Item(t *testing.T) {
	k := MakeKey("Widget", Context{Product: "ACME", Line: "L1", Station: "S2"})
	if k.Item() != "widget" {
		t.Errorf("expected Item() to extract bare item, got %q", k.Item())
	}
	bare := MakeKey("Gadget", Context{})
	if bare.Item() != "gadget" {
		t.Errorf("expected Item() on a bare key to return itself, got %q", bare.Item())
	}
}
