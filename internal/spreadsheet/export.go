// Package spreadsheet builds the review workbook for a translation job
// and parses user-edited workbooks back into a translation map.
//
// The workbook layout is one header row (Slide | Original | one column
// per target language) followed by one row per slide text run. In the
// XLSX form the language cells carry GOOGLETRANSLATE() formulas so the
// sheet translates itself when opened in Google Sheets.
package spreadsheet

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"pptxtrans/internal/language"
	"pptxtrans/internal/pptx"
)

const sheetName = "Translations"

// WriteCSV writes the review sheet as CSV. Language columns are left
// empty for the reviewer to fill in.
func WriteCSV(w io.Writer, slides []pptx.Slide, targets []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headerRow(targets)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, slide := range slides {
		for _, text := range slide.Texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			row := make([]string, 2+len(targets))
			row[0] = fmt.Sprintf("Slide %d", slide.Number)
			row[1] = text
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the review sheet as a minimal SpreadsheetML workbook
// with inline strings. Each language cell holds
// =GOOGLETRANSLATE(B<row>,"<source>","<target>").
func WriteXLSX(w io.Writer, slides []pptx.Slide, sourceLang string, targets []string) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"xl/workbook.xml", workbookXML},
		{"xl/_rels/workbook.xml.rels", workbookRelsXML},
		{"xl/worksheets/sheet1.xml", buildSheetXML(slides, sourceLang, targets)},
	}
	for _, p := range parts {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := f.Write([]byte(p.content)); err != nil {
			return fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close xlsx: %w", err)
	}
	return nil
}

func headerRow(targets []string) []string {
	row := []string{"Slide", "Original"}
	for _, code := range targets {
		if l, ok := language.ByCode(code); ok {
			row = append(row, l.Name)
		} else {
			row = append(row, code)
		}
	}
	return row
}

func buildSheetXML(slides []pptx.Slide, sourceLang string, targets []string) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`)

	writeRow := func(r int, cells []cell) {
		fmt.Fprintf(&b, `<row r="%d">`, r)
		for i, c := range cells {
			ref := columnName(i) + fmt.Sprint(r)
			switch {
			case c.formula != "":
				fmt.Fprintf(&b, `<c r="%s" t="str"><f>%s</f></c>`, ref, escapeFormula(c.formula))
			default:
				fmt.Fprintf(&b, `<c r="%s" t="inlineStr"><is><t xml:space="preserve">%s</t></is></c>`, ref, escapeXML(c.value))
			}
		}
		b.WriteString(`</row>`)
	}

	header := make([]cell, 0, 2+len(targets))
	for _, h := range headerRow(targets) {
		header = append(header, cell{value: h})
	}
	writeRow(1, header)

	r := 2
	for _, slide := range slides {
		for _, text := range slide.Texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			cells := []cell{
				{value: fmt.Sprintf("Slide %d", slide.Number)},
				{value: text},
			}
			for _, code := range targets {
				cells = append(cells, cell{
					formula: fmt.Sprintf(`GOOGLETRANSLATE(B%d,"%s","%s")`, r, sourceLang, code),
				})
			}
			writeRow(r, cells)
			r++
		}
	}

	b.WriteString(`</sheetData></worksheet>`)
	return b.String()
}

type cell struct {
	value   string
	formula string
}

// columnName converts a zero-based column index to its A1 letters.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// escapeFormula escapes only what XML text content requires, keeping
// the quotes inside formulas literal the way spreadsheet writers emit
// them.
var formulaEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeFormula(s string) string {
	return formulaEscaper.Replace(s)
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/><Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/></Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`

const workbookXML = xml.Header + `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="` + sheetName + `" sheetId="1" r:id="rId1"/></sheets></workbook>`

const workbookRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/></Relationships>`
