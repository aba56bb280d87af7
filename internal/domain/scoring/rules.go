package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
)

// itemInput is the slice of a raw record one rubric item reads. Section
// evaluators bind raw fields to item IDs; evaluate applies the item's rule.
type itemInput struct {
	list model.List

	// ratio and proportional items; a proportional item bound to money
	// reads the amount in lakh as its numerator
	num, den float64
	// hasDen is set when the record supplies its own denominator; otherwise
	// proportional items divide by the rubric reference value.
	hasDen bool

	// step items; reported is false when the department left the value out
	value    float64
	reported bool

	money model.Money
	text  model.Text
	// part returns the narrative of a named sub-area.
	part func(name string) model.Text
}

// bindings maps item IDs to the inputs an evaluator extracted.
type bindings map[string]itemInput

// evaluate scores a single item. It never fails: missing input scores zero.
func evaluate(it rubric.Item, in itemInput, r rubric.Rubric) model.ItemScore {
	var score float64
	var summary string

	switch it.Kind {
	case rubric.KindList:
		score, summary = listRule(it, in.list)
	case rubric.KindRatio:
		score, summary = ratioRule(it, in.num, in.den)
	case rubric.KindProportional:
		num, den := in.num, it.Reference
		if in.money.Value > 0 {
			num = in.money.In(r.Units)
		}
		if in.hasDen {
			den = in.den
		}
		score, summary = proportionalRule(it, num, den)
	case rubric.KindStep:
		score, summary = stepRule(it, in.value, in.reported)
	case rubric.KindMonetary:
		score, summary = monetaryRule(it, in.money, r.Units)
	case rubric.KindNarrative:
		score = NarrativeScore(in.text.String(), it.Max, r.Bands)
		summary = narrativeSummary(in.text)
	case rubric.KindMultiNarrative:
		score, summary = multiNarrativeRule(it, in.part, r.Bands)
	default:
		summary = "no rule"
	}

	return model.ItemScore{
		ItemID:       it.ID,
		Label:        it.Label,
		InputSummary: summary,
		AutoScore:    model.Clamp(model.Round2(score), it.Max),
		MaxScore:     it.Max,
	}
}

// listRule: min(count * pointsPerEntry, max).
func listRule(it rubric.Item, l model.List) (float64, string) {
	n, src := l.Len()
	if n == 0 {
		return 0, "0 entries"
	}
	return float64(n) * it.PointsPerEntry, fmt.Sprintf("%d entries (%s)", n, src)
}

// ratioRule looks num/den up in the item's bracket table. A zero denominator
// scores zero.
func ratioRule(it rubric.Item, num, den float64) (float64, string) {
	if den <= 0 {
		return 0, fmt.Sprintf("%s / %s, denominator is zero", fmtNum(num), fmtNum(den))
	}
	ratio := num / den
	if it.Percent {
		ratio *= 100
		return it.Brackets.Lookup(ratio), fmt.Sprintf("%s / %s = %.2f%%", fmtNum(num), fmtNum(den), ratio)
	}
	return it.Brackets.Lookup(ratio), fmt.Sprintf("%s / %s = %.2f", fmtNum(num), fmtNum(den), ratio)
}

// proportionalRule: min(value / den * scale, max), never below zero.
func proportionalRule(it rubric.Item, value, den float64) (float64, string) {
	if den <= 0 {
		return 0, fmt.Sprintf("%s / %s, denominator is zero", fmtNum(value), fmtNum(den))
	}
	return value / den * it.Scale, fmt.Sprintf("%s / %s x %s", fmtNum(value), fmtNum(den), fmtNum(it.Scale))
}

// stepRule: first matching row of the step table, zero when unreported.
func stepRule(it rubric.Item, v float64, reported bool) (float64, string) {
	if !reported || v <= 0 {
		return 0, "not reported"
	}
	return it.Steps.Lookup(v), fmt.Sprintf("%s days", fmtNum(v))
}

// monetaryRule normalises the amount to lakh before the bracket lookup.
func monetaryRule(it rubric.Item, m model.Money, units map[string]float64) (float64, string) {
	lakh := m.In(units)
	if lakh <= 0 {
		return 0, "no amount"
	}
	return it.Brackets.Lookup(lakh), fmt.Sprintf("%.2f %s", lakh, rubric.DefaultUnit)
}

// multiNarrativeRule scores every part independently, then sums.
func multiNarrativeRule(it rubric.Item, part func(string) model.Text, bands rubric.NarrativeBands) (float64, string) {
	total := 0.0
	summaries := make([]string, 0, len(it.Parts))
	for _, name := range it.Parts {
		var text model.Text
		if part != nil {
			text = part(name)
		}
		total += NarrativeScore(text.String(), it.PartMax, bands)
		summaries = append(summaries, fmt.Sprintf("%s: %s", name, narrativeSummary(text)))
	}
	return total, strings.Join(summaries, "; ")
}

func narrativeSummary(t model.Text) string {
	if rubric.IsPlaceholder(t.String()) {
		return "not provided"
	}
	return fmt.Sprintf("%d chars", t.Len())
}

func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
