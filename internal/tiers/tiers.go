// Package tiers defines the static mapping from a superchat amount to its
// display label and highlight duration. The table is immutable after startup
// and is the single source of truth for highlight windows: durations are never
// stored on message rows, they are always derived from the paid amount.
package tiers

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Tier is a fixed (amount, label, highlight-duration) triple.
type Tier struct {
	AmountMinor      int64  `json:"amount_minor"`
	Label            string `json:"label"`
	HighlightSeconds int    `json:"highlight_seconds"`
}

// Table is an ordered set of tiers, sorted ascending by amount.
type Table struct {
	tiers []Tier
}

// ErrUnknownAmount is returned when an amount does not match any tier.
var ErrUnknownAmount = errors.New("amount does not match a configured tier")

// Default returns the built-in tier table. Amounts are minor units
// (e.g. paise), so 10000 is a ₹100 superchat highlighted for 150s.
func Default() *Table {
	t, err := New([]Tier{
		{AmountMinor: 5000, Label: "Blue", HighlightSeconds: 60},
		{AmountMinor: 10000, Label: "Green", HighlightSeconds: 150},
		{AmountMinor: 20000, Label: "Yellow", HighlightSeconds: 300},
		{AmountMinor: 50000, Label: "Orange", HighlightSeconds: 900},
		{AmountMinor: 100000, Label: "Red", HighlightSeconds: 1800},
	})
	if err != nil {
		// The built-in table is validated by tests; reaching this is a bug.
		panic(err)
	}
	return t
}

// New builds a validated table from the given tiers. The input is copied and
// sorted by amount. It returns an error when the set is empty, contains a
// duplicate or non-positive amount, an empty label, a non-positive duration,
// or when a higher amount maps to a shorter highlight than a lower one.
func New(ts []Tier) (*Table, error) {
	if len(ts) == 0 {
		return nil, errors.New("tier table must not be empty")
	}
	out := make([]Tier, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool { return out[i].AmountMinor < out[j].AmountMinor })

	for i, t := range out {
		if t.AmountMinor <= 0 {
			return nil, fmt.Errorf("tier %d: amount must be > 0", i)
		}
		if strings.TrimSpace(t.Label) == "" {
			return nil, fmt.Errorf("tier %d: label must not be empty", i)
		}
		if t.HighlightSeconds <= 0 {
			return nil, fmt.Errorf("tier %d: highlight seconds must be > 0", i)
		}
		if i > 0 {
			prev := out[i-1]
			if t.AmountMinor == prev.AmountMinor {
				return nil, fmt.Errorf("duplicate tier amount %d", t.AmountMinor)
			}
			// Higher payment must buy the same or a longer highlight.
			if t.HighlightSeconds < prev.HighlightSeconds {
				return nil, fmt.Errorf("tier %d (amount %d) has a shorter highlight than tier %d (amount %d)",
					i, t.AmountMinor, i-1, prev.AmountMinor)
			}
		}
	}
	return &Table{tiers: out}, nil
}

// Parse builds a table from a CSV spec of the form
// "amount:label:seconds,amount:label:seconds,...", as used by the
// TIER_TABLE environment variable.
func Parse(spec string) (*Table, error) {
	var ts []Tier
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("tier %q: want amount:label:seconds", part)
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tier %q: bad amount: %w", part, err)
		}
		secs, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("tier %q: bad seconds: %w", part, err)
		}
		ts = append(ts, Tier{
			AmountMinor:      amount,
			Label:            strings.TrimSpace(fields[1]),
			HighlightSeconds: secs,
		})
	}
	return New(ts)
}

// Tiers returns the tiers in ascending amount order. The returned slice is a
// copy; mutating it does not affect the table.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Lookup returns the tier for an exact amount, or ErrUnknownAmount.
func (t *Table) Lookup(amountMinor int64) (Tier, error) {
	i := sort.Search(len(t.tiers), func(i int) bool { return t.tiers[i].AmountMinor >= amountMinor })
	if i < len(t.tiers) && t.tiers[i].AmountMinor == amountMinor {
		return t.tiers[i], nil
	}
	return Tier{}, ErrUnknownAmount
}

// HighlightDuration returns the highlight window bought by amountMinor.
// Unknown amounts yield a zero duration so a malformed historical row renders
// as already expired instead of failing the whole feed.
func (t *Table) HighlightDuration(amountMinor int64) time.Duration {
	tier, err := t.Lookup(amountMinor)
	if err != nil {
		return 0
	}
	return time.Duration(tier.HighlightSeconds) * time.Second
}
