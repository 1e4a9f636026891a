// Package report renders run output for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/csvingest/internal/frame"
	"github.com/JonMunkholm/csvingest/internal/store"
)

var (
	ColorPrimary = lipgloss.Color("39")  // Blue
	ColorBorder  = lipgloss.Color("245") // Gray
	ColorWarning = lipgloss.Color("214") // Orange
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Table renders columns and rows with a normal border.
func Table(columns []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		Headers(columns...).
		Rows(rows...)
	return t.String()
}

// Flagged writes a titled table of flagged rows, or "(none)".
func Flagged(w io.Writer, title string, fr *frame.Frame) error {
	if _, err := fmt.Fprintln(w, TitleStyle.Render(title+":")); err != nil {
		return err
	}
	if fr == nil || fr.Len() == 0 {
		_, err := fmt.Fprintln(w, MutedStyle.Render("(none)"))
		return err
	}
	_, err := fmt.Fprintln(w, Table(fr.Columns, fr.Rows))
	return err
}

// Loads writes one line per table load plus any rejected rows.
func Loads(w io.Writer, results []store.LoadResult) error {
	for _, r := range results {
		line := fmt.Sprintf("%s: %d inserted, %d skipped, %d failed", r.Table, r.Inserted, r.Skipped, len(r.Failed))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if len(r.Failed) == 0 {
			continue
		}
		rows := make([][]string, len(r.Failed))
		for i, f := range r.Failed {
			rows[i] = []string{strconv.Itoa(f.Line), f.ID, f.Reason}
		}
		if _, err := fmt.Fprintln(w, WarningStyle.Render(Table([]string{"line", "id", "reason"}, rows))); err != nil {
			return err
		}
	}
	return nil
}

// Ingestions writes audit rows as a table.
func Ingestions(w io.Writer, recs []store.IngestionRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, MutedStyle.Render("no ingestions recorded"))
		return err
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			r.RetrievedAt.Local().Format("2006-01-02 15:04:05"),
			r.RunID.String()[:8],
			r.SourceFile,
			strconv.Itoa(r.TotalRows),
			strconv.Itoa(r.ProcessedRows),
			strconv.Itoa(r.Errors),
			r.Notes,
		}
	}
	_, err := fmt.Fprintln(w, Table(
		[]string{"retrieved_at", "run", "source_file", "total", "processed", "errors", "notes"},
		rows,
	))
	return err
}
