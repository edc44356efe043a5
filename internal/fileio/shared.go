package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Row: значения строки по заголовкам и номер строки в файле (1-based).
type Row struct {
	Line   int
	Values map[string]string
}

// ReadAnyMaps: выберет парсер по расширению и вернёт строки с номерами.
// headerRow: номер строки заголовков (1-based).
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, headerRow)
	case ".xls":
		return readXLS(r, headerRow)
	case ".csv":
		return readCSV(r, headerRow)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// pickHeader: берёт строку заголовков и подставляет Column N для пустых.
func pickHeader(rows [][]string, headerRow int) []string {
	if len(rows) == 0 {
		return nil
	}
	idx := headerRow - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\uFEFF"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps: конвертирует AoA в []Row по заголовкам, пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []Row {
	start := headerRow // первая строка после заголовков
	if start < 1 {
		start = 1
	}
	var out []Row
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			m[headers[c]] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, Row{Line: r + 1, Values: m})
		}
	}
	return out
}

// withLines подменяет номера строк физическими (Line-1: индекс в lines).
func withLines(rows []Row, lines []int) []Row {
	for i := range rows {
		if idx := rows[i].Line - 1; idx >= 0 && idx < len(lines) {
			rows[i].Line = lines[idx]
		}
	}
	return rows
}
