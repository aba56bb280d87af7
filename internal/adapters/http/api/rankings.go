package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/udrf/internal/domain/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RankingsDependencies defines the interface for the ranking feed.
type RankingsDependencies interface {
	Rankings(ctx context.Context, category, year, expertID string) ([]model.RankingRow, error)
}

// RankingsHandler handles ranking feed requests.
type RankingsHandler struct {
	deps RankingsDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGetRankings handles GET /rankings?category=C&year=Y[&expert=E].
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleExport handles GET /rankings/export.xlsx with the same query as the
// ranking feed.
func (h *RankingsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := RankingWorkbook(rows)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	name := "rankings"
	if c := strings.TrimSpace(r.URL.Query().Get("category")); c != "" {
		name += "-" + c
	}
	if y := strings.TrimSpace(r.URL.Query().Get("year")); y != "" {
		name += "-" + y
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_ = f.Write(w)
}

func (h *RankingsHandler) rows(r *http.Request) ([]model.RankingRow, error) {
	q := r.URL.Query()
	rows, err := h.deps.Rankings(r.Context(),
		strings.TrimSpace(q.Get("category")),
		strings.TrimSpace(q.Get("year")),
		strings.TrimSpace(q.Get("expert")))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.RankingRow{}
	}
	return rows, nil
}

// RankingWorkbook renders rows into a single-sheet workbook.
func RankingWorkbook(rows []model.RankingRow) (*excelize.File, error) {
	const sheet = "Rankings"
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	headers := []string{"Rank", "Code", "Department", "Auto Total", "Expert Total", "Ranking Score", "Status", "Locked"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		line := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, row.Rank)
		write(2, row.Department.Code)
		write(3, row.Department.Name)
		write(4, row.AutoTotal)
		if row.ExpertTotal != nil {
			write(5, *row.ExpertTotal)
		} else {
			write(5, "")
		}
		write(6, row.RankingScore)
		write(7, row.Status)
		write(8, row.IsLocked)
	}

	_ = f.SetColWidth(sheet, "C", "C", 36)
	_ = f.SetColWidth(sheet, "D", "F", 14)
	return f, nil
}
