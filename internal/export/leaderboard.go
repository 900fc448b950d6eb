// Package export writes leaderboard views as XLSX workbooks for offline review.
package export

import (
	"fmt"
	"io"
	"time"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	rankingSheet = "Kedudukan"
	summarySheet = "Ringkasan"
)

var rankingHeader = []interface{}{
	"Kedudukan", "Nama", "Jenis", "Kategori", "Markah", "Jumlah", "Peratus", "Gred", "Masa", "Tarikh",
}

// WriteLeaderboard writes lb as a workbook with a ranking sheet and a summary sheet.
func WriteLeaderboard(w io.Writer, lb domain.Leaderboard) error {
	f, err := Workbook(lb)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook builds the in-memory workbook for lb. The caller closes it.
func Workbook(lb domain.Leaderboard) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rankingSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRanking(f, lb); err != nil {
		f.Close()
		return nil, fmt.Errorf("ranking sheet: %w", err)
	}
	if err := writeSummary(f, lb); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	return f, nil
}

func writeRanking(f *excelize.File, lb domain.Leaderboard) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(rankingSheet, "A1", &rankingHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(rankingSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, e := range lb.Entries {
		rec := e.Record
		category := rec.CategoryName
		if category == "" {
			category = rec.CategoryID
		}
		row := []interface{}{
			e.Rank,
			e.UserDisplayName,
			string(rec.Type),
			category,
			rec.Score,
			rec.Total,
			rec.Percentage,
			rec.Grade,
			app.FormatDuration(time.Duration(rec.TimeSpentMs) * time.Millisecond),
			e.RelativeDateLabel,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(rankingSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(rankingSheet, "B", "B", 24); err != nil {
		return err
	}
	return f.SetPanes(rankingSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, lb domain.Leaderboard) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Penapis", string(lb.Filter)},
		{"Jumlah percubaan", lb.Stats.Total},
		{"Kuiz", lb.Stats.QuizCount},
		{"Ujian", lb.Stats.TestCount},
		{"Dijana", lb.GeneratedAt.Format("02/01/2006 15:04")},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 20)
}
