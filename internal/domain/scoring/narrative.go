package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/udrf/internal/domain/rubric"
)

// NarrativeScore turns a free-text answer into a share of max. Empty and
// placeholder answers score zero; otherwise the score is a nondecreasing step
// function of the text length read from bands. Bands never reach 100%, full
// marks on narrative items are left to the expert.
func NarrativeScore(text string, max float64, bands rubric.NarrativeBands) float64 {
	if max <= 0 || rubric.IsPlaceholder(text) {
		return 0
	}
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	score := bands.Fraction(n) * max
	if score > max {
		return max
	}
	return score
}
