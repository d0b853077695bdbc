// Package report exports a learner's path as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progression"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	invalidSheets = `:\/?*[]`
)

var lessonHeader = []any{"Unit", "Lesson", "Status", "Completed %", "XP", "Premium", "Lock reason"}

// WritePathWorkbook writes p as an .xlsx workbook: a Summary sheet followed
// by one sheet per chapter listing its lessons in path order.
func WritePathWorkbook(w io.Writer, p progression.Path) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, p, bold); err != nil {
		return err
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, ch := range p.Chapters {
		name := sheetName(ch.Title, ch.ChapterID, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeChapter(f, name, ch, bold); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, p progression.Path, style int) error {
	completed, total := 0, 0
	for _, ch := range p.Chapters {
		for _, u := range ch.Units {
			for _, n := range u.Nodes {
				total++
				if n.Status == curriculum.StatusCompleted {
					completed++
				}
			}
		}
	}

	rows := [][]any{
		{"Language", p.Name},
		{"Language ID", p.LanguageID},
		{"Premium", p.HasPremium},
		{"Lessons completed", completed},
		{"Lessons total", total},
		{"XP earned", p.EarnedXP},
		{"XP total", p.TotalXP},
	}
	if next, ok := p.NextLesson(); ok {
		rows = append(rows, []any{"Next lesson", next.Title})
	}

	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetColStyle(summarySheet, "A", style); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	return f.SetColWidth(summarySheet, "A", "A", 20)
}

func writeChapter(f *excelize.File, sheet string, ch progression.ChapterPath, style int) error {
	if err := setRow(f, sheet, 1, lessonHeader); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, u := range ch.Units {
		for _, n := range u.Nodes {
			if err := setRow(f, sheet, row, []any{
				u.Title,
				n.Title,
				string(n.Status),
				n.Percentage,
				n.XPReward,
				n.IsPremium,
				string(n.Reason),
			}); err != nil {
				return err
			}
			row++
		}
	}
	return f.SetColWidth(sheet, "A", "B", 24)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// sheetName derives a legal, unique worksheet name from a chapter title.
func sheetName(title, fallback string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheets, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = fallback
	}
	clean = truncate(clean, maxSheetName)

	name := clean
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
