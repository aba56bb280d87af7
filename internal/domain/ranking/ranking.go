// Package ranking consolidates auto scores and expert reviews into the
// department ranking feed.
package ranking

import (
	"sort"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/review"
)

// Candidate is one department with its auto score and every review of it.
type Candidate struct {
	Department model.Department
	Auto       model.DepartmentScoreSummary
	Reviews    []*model.ExpertReview
}

// PickReview selects the review a department is ranked by. With an expert
// ID only that expert's review counts. Otherwise locked reviews win over
// open ones and the most recently updated wins among equals.
func PickReview(reviews []*model.ExpertReview, expertID string) *model.ExpertReview {
	var best *model.ExpertReview
	for _, r := range reviews {
		if r == nil {
			continue
		}
		if expertID != "" {
			if r.ExpertID == expertID {
				return r
			}
			continue
		}
		if best == nil || preferred(r, best) {
			best = r
		}
	}
	return best
}

func preferred(a, b *model.ExpertReview) bool {
	al, bl := review.StateOf(a) == review.StateLocked, review.StateOf(b) == review.StateLocked
	if al != bl {
		return al
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ExpertID < b.ExpertID
}

// Consolidate builds the unranked row of a candidate.
func Consolidate(c Candidate, expertID string) model.RankingRow {
	row := model.RankingRow{
		Department:   c.Department,
		AutoTotal:    c.Auto.Total,
		RankingScore: c.Auto.Total,
		Status:       string(review.StatePending),
	}
	r := PickReview(c.Reviews, expertID)
	if r == nil {
		return row
	}
	row.Status = string(review.StateOf(r))
	row.IsLocked = r.IsLocked
	row.ReviewedBy = r.ExpertID
	if r.ExpertTotal != nil {
		total := *r.ExpertTotal
		row.ExpertTotal = &total
		row.RankingScore = total
	}
	return row
}

// Rank orders rows by ranking score, highest first, and assigns ranks.
// Equal scores keep their input order and share a rank; the next distinct
// score takes the following rank.
func Rank(rows []model.RankingRow) []model.RankingRow {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RankingScore > rows[j].RankingScore
	})
	assignRanksWithTies(rows)
	return rows
}

// Build consolidates and ranks candidates. A positive limit truncates the
// feed after ranking.
func Build(candidates []Candidate, expertID string, limit int) []model.RankingRow {
	rows := make([]model.RankingRow, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, Consolidate(c, expertID))
	}
	rows = Rank(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func assignRanksWithTies(rows []model.RankingRow) {
	rank := 0
	for i := range rows {
		if i == 0 || rows[i].RankingScore != rows[i-1].RankingScore {
			rank++
		}
		rows[i].Rank = rank
	}
}
