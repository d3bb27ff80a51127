package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"pptxtrans/internal/language"
	"pptxtrans/internal/model"
)

// ImportStats reports what an import run did.
type ImportStats struct {
	Rows      int      `json:"rows"`
	Skipped   int      `json:"skipped"`
	Languages []string `json:"languages"`
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Parse reads a user-edited review sheet into a row grid. XLSX is
// recognized by its zip magic; anything else is treated as CSV.
func Parse(data []byte) ([][]string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return ReadXLSX(data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1 // user-edited files have ragged rows
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// slideRef extracts the slide number from cell values like "Slide 3",
// "slide #3", "Folie 3" or a bare "3".
var slideRef = regexp.MustCompile(`(?i)^\s*(?:slide|folie|diapositiva|diapositive|page)?\s*#?\s*(\d+)\s*$`)

// slideHeaders are accepted names for the slide number column.
var slideHeaders = map[string]bool{
	"slide":        true,
	"slide #":      true,
	"slide no":     true,
	"slide number": true,
	"#":            true,
	"folie":        true,
	"diapositiva":  true,
	"diapositive":  true,
}

// ignoredHeaders are columns that are never language columns.
var ignoredHeaders = map[string]bool{
	"original":    true,
	"source":      true,
	"source text": true,
	"text":        true,
	"notes":       true,
	"comment":     true,
	"comments":    true,
	"id":          true,
}

// MapTranslations turns a parsed review sheet into a translation map
// keyed by slide number and language code. The first row is the header:
// the slide column is found by name (falling back to column 0), and
// every remaining column resolving to a known language becomes a
// translation column. Rows whose slide cell does not parse are skipped.
// Multiple rows for the same slide are joined with newlines in order.
func MapTranslations(rows [][]string) (model.TranslationMap, ImportStats, error) {
	if len(rows) == 0 {
		return nil, ImportStats{}, fmt.Errorf("empty sheet")
	}

	header := rows[0]
	slideCol := -1
	langCols := map[int]string{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if slideCol < 0 && slideHeaders[key] {
			slideCol = i
			continue
		}
		if ignoredHeaders[key] {
			continue
		}
		if code, ok := language.Resolve(h); ok {
			langCols[i] = code
		}
	}
	if slideCol < 0 {
		slideCol = 0
	}
	if len(langCols) == 0 {
		return nil, ImportStats{}, fmt.Errorf("no language columns recognized in header")
	}
	cols := make([]int, 0, len(langCols))
	for col := range langCols {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	out := model.TranslationMap{}
	stats := ImportStats{}
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		if len(row) <= slideCol {
			stats.Skipped++
			continue
		}
		m := slideRef.FindStringSubmatch(row[slideCol])
		if m == nil {
			stats.Skipped++
			continue
		}
		slide := atoiSafe(m[1])
		imported := false
		for _, col := range cols {
			code := langCols[col]
			if col >= len(row) {
				continue
			}
			text := strings.TrimSpace(row[col])
			if text == "" {
				continue
			}
			if out[slide] == nil {
				out[slide] = map[string]string{}
			}
			if prev, ok := out[slide][code]; ok {
				out[slide][code] = prev + "\n" + text
			} else {
				out[slide][code] = text
			}
			if !seen[code] {
				seen[code] = true
				stats.Languages = append(stats.Languages, code)
			}
			imported = true
		}
		if imported {
			stats.Rows++
		} else {
			stats.Skipped++
		}
	}
	if stats.Rows == 0 {
		return nil, stats, fmt.Errorf("no translated rows found")
	}
	return out, stats, nil
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
