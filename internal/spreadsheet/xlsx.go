package spreadsheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

// ReadXLSX parses the first worksheet of a workbook into a row grid.
// Shared strings, inline strings and plain values are all supported;
// anything else (errors, booleans) comes back as its raw value text.
func ReadXLSX(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: not a zip: %w", err)
	}

	var shared []string
	if f := findZipFile(zr, "xl/sharedStrings.xml"); f != nil {
		shared, err = parseSharedStrings(f)
		if err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}
	}

	sheet := findZipFile(zr, "xl/worksheets/sheet1.xml")
	if sheet == nil {
		// Fall back to the first worksheet part present.
		var names []string
		for _, f := range zr.File {
			if strings.HasPrefix(f.Name, "xl/worksheets/") && strings.HasSuffix(f.Name, ".xml") {
				names = append(names, f.Name)
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no worksheet found in workbook")
		}
		sort.Strings(names)
		sheet = findZipFile(zr, names[0])
	}

	return parseWorksheet(sheet, shared)
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func parseSharedStrings(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		shared  []string
		current strings.Builder
		inSI    bool
		inT     bool
	)
	dec := newXMLDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "si":
				inSI = true
				current.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "si":
				inSI = false
				shared = append(shared, current.String())
			case "t":
				inT = false
			}
		case xml.CharData:
			if inSI && inT {
				current.Write(el)
			}
		}
	}
	return shared, nil
}

func parseWorksheet(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		rows    [][]string
		row     []string
		cellCol int
		cellTyp string
		value   strings.Builder
		inValue bool
	)
	dec := newXMLDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse worksheet: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				row = nil
				cellCol = -1
			case "c":
				cellCol++
				cellTyp = ""
				for _, attr := range el.Attr {
					switch attr.Name.Local {
					case "r":
						if col, ok := columnIndex(attr.Value); ok {
							cellCol = col
						}
					case "t":
						cellTyp = attr.Value
					}
				}
			case "v", "t":
				inValue = true
				value.Reset()
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "row":
				rows = append(rows, row)
			case "v", "t":
				inValue = false
				row = setCell(row, cellCol, cellValue(cellTyp, value.String(), shared))
			}
		case xml.CharData:
			if inValue {
				value.Write(el)
			}
		}
	}
	return rows, nil
}

func cellValue(typ, raw string, shared []string) string {
	if typ == "s" {
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return ""
	}
	return raw
}

func setCell(row []string, col int, value string) []string {
	if col < 0 {
		return row
	}
	for len(row) <= col {
		row = append(row, "")
	}
	// Inline strings emit both <is><t> and sometimes <v>; keep the first
	// non-empty write.
	if row[col] == "" {
		row[col] = value
	}
	return row
}

// columnIndex converts an A1-style cell reference to a zero-based
// column index.
func columnIndex(ref string) (int, bool) {
	col := 0
	seen := false
	for _, r := range ref {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
		seen = true
	}
	if !seen {
		return 0, false
	}
	return col - 1, true
}
