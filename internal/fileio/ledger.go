package fileio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	excelize "github.com/xuri/excelize/v2"

	"catalog-recon/internal/reconcile/model"
)

const ledgerSheet = "Unmatched"

// LedgerLanguages: все языки, встречающиеся в записях, по алфавиту.
func LedgerLanguages(entries []model.UnmatchedEntry) []string {
	seen := map[string]struct{}{}
	for _, e := range entries {
		for l := range e.Record.LangFields() {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func ledgerHeader(langs []string) []string {
	h := []string{"line", "manufacturer", "reference"}
	for _, l := range langs {
		h = append(h, "title_"+l, "description_"+l)
	}
	return append(h, "reason", "best_score", "hint")
}

// ledgerRow: значения записи как есть, без нормализации.
func ledgerRow(e model.UnmatchedEntry, langs []string) []string {
	line := ""
	if e.Record.Line > 0 {
		line = strconv.Itoa(e.Record.Line)
	}
	row := []string{line, e.Record.Manufacturer, e.Record.ReferenceCode}
	fields := e.Record.LangFields()
	for _, l := range langs {
		f := fields[model.LangKey(l)]
		row = append(row, f.Title, f.Description)
	}
	return append(row, e.Reason, strconv.FormatFloat(e.BestScore, 'f', -1, 64), e.Hint)
}

// WriteLedgerXLSX пишет ledger одним листом. langs == nil: языки из самих записей.
func WriteLedgerXLSX(w io.Writer, entries []model.UnmatchedEntry, langs []string) error {
	if langs == nil {
		langs = LedgerLanguages(entries)
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ledgerSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	write := func(rowIdx int, vals []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		return f.SetSheetRow(ledgerSheet, cell, &row)
	}

	if err := write(1, ledgerHeader(langs)); err != nil {
		return fmt.Errorf("xlsx header: %w", err)
	}
	for i, e := range entries {
		if err := write(i+2, ledgerRow(e, langs)); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(ledgerSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("xlsx panes: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func WriteLedgerCSV(w io.Writer, entries []model.UnmatchedEntry, langs []string) error {
	if langs == nil {
		langs = LedgerLanguages(entries)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader(langs)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(ledgerRow(e, langs)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
