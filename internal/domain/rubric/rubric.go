package rubric

import (
	"errors"
	"fmt"
	"math"
)

// SectionID identifies one of the five rubric sections.
type SectionID string

// Rubric sections.
const (
	SectionFaculty     SectionID = "I"
	SectionNEP         SectionID = "II"
	SectionGovernance  SectionID = "III"
	SectionStudent     SectionID = "IV"
	SectionConferences SectionID = "V"
)

// SectionCount is the number of rubric sections.
const SectionCount = 5

// SectionOrder lists sections in display and storage order.
var SectionOrder = [SectionCount]SectionID{
	SectionFaculty,
	SectionNEP,
	SectionGovernance,
	SectionStudent,
	SectionConferences,
}

// SectionIndex returns the position of id in SectionOrder, or -1.
func SectionIndex(id SectionID) int {
	for i, s := range SectionOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// Kind selects the rule an item is scored with.
type Kind string

// Item kinds.
const (
	KindList           Kind = "list"
	KindRatio          Kind = "ratio"
	KindProportional   Kind = "proportional"
	KindStep           Kind = "step"
	KindMonetary       Kind = "monetary"
	KindNarrative      Kind = "narrative"
	KindMultiNarrative Kind = "multi_narrative"
)

// Item is one scored line of a section.
type Item struct {
	ID    string
	Label string
	Kind  Kind
	Max   float64

	// KindList
	PointsPerEntry float64

	// KindRatio and KindMonetary. Percent compares num/den*100 instead of num/den.
	Brackets BracketTable
	Percent  bool

	// KindStep
	Steps StepTable

	// KindProportional: min(value/Reference*Scale, Max). Reference is used
	// when the raw record carries no denominator of its own.
	Reference float64
	Scale     float64

	// KindMultiNarrative
	Parts   []string
	PartMax float64
}

// Section is a rubric section with its ceiling and items.
type Section struct {
	ID        SectionID
	Title     string
	MaxPoints float64
	Items     []Item
}

// Item returns the item with the given id. A missing id yields a zero-max
// item so evaluators degrade to a zero score instead of failing.
func (s Section) Item(id string) Item {
	for _, it := range s.Items {
		if it.ID == id {
			return it
		}
	}
	return Item{ID: id, Label: id}
}

// ItemsMax sums the maxima of every item in the section.
func (s Section) ItemsMax() float64 {
	total := 0.0
	for _, it := range s.Items {
		total += it.Max
	}
	return total
}

// Rubric is the full UDRF rule set.
type Rubric struct {
	Sections []Section
	Bands    NarrativeBands
	Units    map[string]float64
}

// Section returns the section with the given id, or a zero section.
func (r Rubric) Section(id SectionID) Section {
	for _, s := range r.Sections {
		if s.ID == id {
			return s
		}
	}
	return Section{ID: id}
}

// FindItem looks an item up across all sections.
func (r Rubric) FindItem(id string) (Item, SectionID, bool) {
	for _, s := range r.Sections {
		for _, it := range s.Items {
			if it.ID == id {
				return it, s.ID, true
			}
		}
	}
	return Item{}, "", false
}

// TotalMax is the rubric ceiling, the sum of section maxima.
func (r Rubric) TotalMax() float64 {
	total := 0.0
	for _, s := range r.Sections {
		total += s.MaxPoints
	}
	return total
}

// Validate checks structural consistency of the tables.
func (r Rubric) Validate() error {
	if len(r.Sections) != SectionCount {
		return fmt.Errorf("%w: expected %d sections, got %d", ErrInvalidRubric, SectionCount, len(r.Sections))
	}
	seen := make(map[string]struct{})
	for i, s := range r.Sections {
		if s.ID != SectionOrder[i] {
			return fmt.Errorf("%w: section %d is %q, want %q", ErrInvalidRubric, i, s.ID, SectionOrder[i])
		}
		if s.MaxPoints <= 0 || math.IsNaN(s.MaxPoints) || math.IsInf(s.MaxPoints, 0) {
			return fmt.Errorf("%w: section %s has invalid max %v", ErrInvalidRubric, s.ID, s.MaxPoints)
		}
		for _, it := range s.Items {
			if _, dup := seen[it.ID]; dup {
				return fmt.Errorf("%w: duplicate item %s", ErrInvalidRubric, it.ID)
			}
			seen[it.ID] = struct{}{}
			if it.Max < 0 || it.PointsPerEntry < 0 {
				return fmt.Errorf("%w: item %s has negative points", ErrInvalidRubric, it.ID)
			}
			if it.Kind == KindProportional && it.Scale <= 0 {
				return fmt.Errorf("%w: item %s has no scale", ErrInvalidRubric, it.ID)
			}
		}
	}
	return nil
}

// Overrides adjusts rubric constants from configuration. Keys are section ids
// (I..V) and item ids (e.g. "II.1").
type Overrides struct {
	SectionMax     map[string]float64 `koanf:"section_max"`
	ItemMax        map[string]float64 `koanf:"item_max"`
	PointsPerEntry map[string]float64 `koanf:"points_per_entry"`
}

// ErrInvalidRubric reports inconsistent rubric tables or overrides.
var ErrInvalidRubric = errors.New("invalid rubric")

// WithOverrides returns a copy of r with o applied. r is not modified.
func (r Rubric) WithOverrides(o Overrides) (Rubric, error) {
	out := r.clone()
	for key, v := range o.SectionMax {
		idx := SectionIndex(SectionID(key))
		if idx < 0 {
			return Rubric{}, fmt.Errorf("%w: unknown section %q", ErrInvalidRubric, key)
		}
		if v <= 0 {
			return Rubric{}, fmt.Errorf("%w: section %s max must be positive", ErrInvalidRubric, key)
		}
		out.Sections[idx].MaxPoints = v
	}
	apply := func(m map[string]float64, set func(*Item, float64)) error {
		for id, v := range m {
			if v < 0 {
				return fmt.Errorf("%w: item %s value must not be negative", ErrInvalidRubric, id)
			}
			found := false
			for si := range out.Sections {
				for ii := range out.Sections[si].Items {
					if out.Sections[si].Items[ii].ID == id {
						set(&out.Sections[si].Items[ii], v)
						found = true
					}
				}
			}
			if !found {
				return fmt.Errorf("%w: unknown item %q", ErrInvalidRubric, id)
			}
		}
		return nil
	}
	if err := apply(o.ItemMax, func(it *Item, v float64) { it.Max = v }); err != nil {
		return Rubric{}, err
	}
	if err := apply(o.PointsPerEntry, func(it *Item, v float64) { it.PointsPerEntry = v }); err != nil {
		return Rubric{}, err
	}
	return out, out.Validate()
}

func (r Rubric) clone() Rubric {
	out := Rubric{
		Sections: make([]Section, len(r.Sections)),
		Bands:    append(NarrativeBands(nil), r.Bands...),
		Units:    make(map[string]float64, len(r.Units)),
	}
	for k, v := range r.Units {
		out.Units[k] = v
	}
	for i, s := range r.Sections {
		s.Items = append([]Item(nil), s.Items...)
		out.Sections[i] = s
	}
	return out
}
