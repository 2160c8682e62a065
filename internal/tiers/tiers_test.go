package tiers

import (
	"testing"
	"time"
)

func TestDefault_IsValidAndOrdered(t *testing.T) {
	tab := Default()
	ts := tab.Tiers()
	if len(ts) == 0 {
		t.Fatal("default table is empty")
	}
	for i := 1; i < len(ts); i++ {
		if ts[i].AmountMinor <= ts[i-1].AmountMinor {
			t.Fatalf("amounts not strictly increasing at %d: %d <= %d", i, ts[i].AmountMinor, ts[i-1].AmountMinor)
		}
		if ts[i].HighlightSeconds < ts[i-1].HighlightSeconds {
			t.Fatalf("highlight not monotonic at %d: %d < %d", i, ts[i].HighlightSeconds, ts[i-1].HighlightSeconds)
		}
	}
}

func TestNew_RejectsNonMonotonicHighlight(t *testing.T) {
	_, err := New([]Tier{
		{AmountMinor: 100, Label: "a", HighlightSeconds: 60},
		{AmountMinor: 200, Label: "b", HighlightSeconds: 30},
	})
	if err == nil {
		t.Fatal("expected error for decreasing highlight duration")
	}
}

func TestNew_RejectsDuplicateAmount(t *testing.T) {
	_, err := New([]Tier{
		{AmountMinor: 100, Label: "a", HighlightSeconds: 60},
		{AmountMinor: 100, Label: "b", HighlightSeconds: 60},
	})
	if err == nil {
		t.Fatal("expected error for duplicate amount")
	}
}

func TestNew_RejectsEmptyAndInvalid(t *testing.T) {
	cases := []struct {
		name string
		in   []Tier
	}{
		{"empty", nil},
		{"zero amount", []Tier{{AmountMinor: 0, Label: "a", HighlightSeconds: 10}}},
		{"blank label", []Tier{{AmountMinor: 1, Label: "  ", HighlightSeconds: 10}}},
		{"zero seconds", []Tier{{AmountMinor: 1, Label: "a", HighlightSeconds: 0}}},
	}
	for _, tc := range cases {
		if _, err := New(tc.in); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNew_SortsInput(t *testing.T) {
	tab, err := New([]Tier{
		{AmountMinor: 200, Label: "b", HighlightSeconds: 120},
		{AmountMinor: 100, Label: "a", HighlightSeconds: 60},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := tab.Tiers()
	if ts[0].AmountMinor != 100 || ts[1].AmountMinor != 200 {
		t.Fatalf("table not sorted: %+v", ts)
	}
}

func TestLookup(t *testing.T) {
	tab := Default()

	tier, err := tab.Lookup(10000)
	if err != nil {
		t.Fatalf("Lookup(10000): %v", err)
	}
	if tier.HighlightSeconds != 150 {
		t.Fatalf("want 150s highlight for 10000, got %d", tier.HighlightSeconds)
	}

	if _, err := tab.Lookup(12345); err != ErrUnknownAmount {
		t.Fatalf("want ErrUnknownAmount, got %v", err)
	}
}

func TestHighlightDuration(t *testing.T) {
	tab := Default()
	if d := tab.HighlightDuration(10000); d != 150*time.Second {
		t.Fatalf("want 150s, got %v", d)
	}
	// Unknown amounts render as already expired, not as an error.
	if d := tab.HighlightDuration(1); d != 0 {
		t.Fatalf("want 0 for unknown amount, got %v", d)
	}
}

func TestParse(t *testing.T) {
	tab, err := Parse("5000:Blue:60, 10000:Green:150")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(tab.Tiers()); got != 2 {
		t.Fatalf("want 2 tiers, got %d", got)
	}
	if _, err := Parse("oops"); err == nil {
		t.Fatal("expected error for malformed spec")
	}
	if _, err := Parse("100:a:x"); err == nil {
		t.Fatal("expected error for bad seconds")
	}
}
