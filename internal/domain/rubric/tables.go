// Package rubric holds the UDRF scoring tables: section maxima, item
// definitions and the bracket, step and band tables the evaluators read.
//
// Every threshold and points value used by the scoring engine lives here as
// data. Evaluators never embed rubric literals.
package rubric

import (
	"sort"
	"strings"
)

// boundaryEpsilon absorbs float noise so that a value computed exactly at a
// threshold (for example 3/4*100) still selects that threshold's bracket.
const boundaryEpsilon = 1e-9

// Bracket maps a lower threshold to a points value.
type Bracket struct {
	Min    float64 `koanf:"min" json:"min"`
	Points float64 `koanf:"points" json:"points"`
}

// BracketTable is an ordered set of brackets, highest threshold first.
type BracketTable []Bracket

// NewBracketTable copies rows and orders them from the highest threshold
// down. Rows sharing a threshold keep the higher points value first.
func NewBracketTable(rows ...Bracket) BracketTable {
	t := make(BracketTable, len(rows))
	copy(t, rows)
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].Min != t[j].Min {
			return t[i].Min > t[j].Min
		}
		return t[i].Points > t[j].Points
	})
	return t
}

// Lookup returns the points of the highest bracket whose threshold v reaches,
// or zero when v is below every threshold.
func (t BracketTable) Lookup(v float64) float64 {
	for _, b := range t {
		if v+boundaryEpsilon >= b.Min {
			return b.Points
		}
	}
	return 0
}

// Step is one row of a conditional step table: values up to and including
// UpTo earn Points.
type Step struct {
	UpTo   float64 `koanf:"up_to" json:"up_to"`
	Points float64 `koanf:"points" json:"points"`
}

// StepTable is evaluated in order; the first matching row wins.
type StepTable []Step

// Lookup returns the points of the first row with v <= UpTo, or zero.
func (t StepTable) Lookup(v float64) float64 {
	for _, s := range t {
		if v <= s.UpTo+boundaryEpsilon {
			return s.Points
		}
	}
	return 0
}

// Band maps a minimum text length to a fraction of an item's maximum.
type Band struct {
	MinLen   int
	Fraction float64
}

// NarrativeBands is ordered from the longest band down.
type NarrativeBands []Band

// NewNarrativeBands orders bands from the longest minimum length down.
func NewNarrativeBands(bands ...Band) NarrativeBands {
	b := make(NarrativeBands, len(bands))
	copy(b, bands)
	sort.SliceStable(b, func(i, j int) bool { return b[i].MinLen > b[j].MinLen })
	return b
}

// Fraction returns the share of the maximum earned by a text of length n.
func (b NarrativeBands) Fraction(n int) float64 {
	for _, band := range b {
		if n >= band.MinLen {
			return band.Fraction
		}
	}
	return 0
}

// DefaultNarrativeBands: under 10 characters nothing, then 30/50/60/70 percent.
func DefaultNarrativeBands() NarrativeBands {
	return NewNarrativeBands(
		Band{MinLen: 10, Fraction: 0.30},
		Band{MinLen: 50, Fraction: 0.50},
		Band{MinLen: 100, Fraction: 0.60},
		Band{MinLen: 200, Fraction: 0.70},
	)
}

// Placeholders are narrative answers that count as not provided.
var placeholders = map[string]struct{}{
	"-":              {},
	"--":             {},
	"n/a":            {},
	"na":             {},
	"nil":            {},
	"none":           {},
	"not provided":   {},
	"not applicable": {},
}

// IsPlaceholder reports whether s is empty or a stand-in for a missing answer.
func IsPlaceholder(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return true
	}
	_, ok := placeholders[t]
	return ok
}

// Monetary amounts are normalised to lakh before bracket lookup.
const DefaultUnit = "lakh"

// UnitFactors converts one unit of the key into lakh.
func UnitFactors() map[string]float64 {
	return map[string]float64{
		"rupee":    0.00001,
		"rupees":   0.00001,
		"inr":      0.00001,
		"rs":       0.00001,
		"thousand": 0.01,
		"k":        0.01,
		"lakh":     1,
		"lakhs":    1,
		"lac":      1,
		"lacs":     1,
		"crore":    100,
		"crores":   100,
		"cr":       100,
	}
}

// MonetaryBrackets is the funding table shared by alumni and CSR items.
func MonetaryBrackets() BracketTable {
	return NewBracketTable(
		Bracket{Min: 10, Points: 10},
		Bracket{Min: 8, Points: 9},
		Bracket{Min: 6, Points: 8},
		Bracket{Min: 4, Points: 6},
		Bracket{Min: 2, Points: 4},
		Bracket{Min: 1, Points: 2},
	)
}
