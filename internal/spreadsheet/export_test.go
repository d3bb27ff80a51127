package spreadsheet_test

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/pptx"
	"pptxtrans/internal/spreadsheet"
)

func decompress(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return content
	}
	t.Fatalf("part %s not found", name)
	return nil
}

var exportSlides = []pptx.Slide{
	{Number: 1, Texts: []string{"Title", "  ", `He said "hi", twice`}},
	{Number: 2, Texts: []string{"Second slide"}},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := spreadsheet.WriteCSV(&buf, exportSlides, []string{"es", "de"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 non-empty runs

	require.Equal(t, []string{"Slide", "Original", "Spanish", "German"}, rows[0])
	require.Equal(t, "Slide 1", rows[1][0])
	require.Equal(t, "Title", rows[1][1])
	// Quotes and commas survive the csv round trip.
	require.Equal(t, `He said "hi", twice`, rows[2][1])
	require.Equal(t, "Slide 2", rows[3][0])
}

func TestWriteCSV_UnknownCodeFallsBackToCode(t *testing.T) {
	var buf bytes.Buffer
	err := spreadsheet.WriteCSV(&buf, exportSlides, []string{"zz"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "zz", rows[0][2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := spreadsheet.WriteXLSX(&buf, exportSlides, "en", []string{"es"})
	require.NoError(t, err)

	rows, err := spreadsheet.ReadXLSX(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"Slide", "Original", "Spanish"}, rows[0][:3])
	require.Equal(t, "Slide 1", rows[1][0])
	require.Equal(t, "Title", rows[1][1])
}

func TestWriteXLSX_EmitsTranslateFormulas(t *testing.T) {
	var buf bytes.Buffer
	err := spreadsheet.WriteXLSX(&buf, exportSlides, "en", []string{"es", "ja"})
	require.NoError(t, err)

	content := buf.Bytes()
	rows, err := spreadsheet.Parse(content)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// The worksheet XML must carry one formula per language cell.
	require.Contains(t, string(decompress(t, content, "xl/worksheets/sheet1.xml")),
		`GOOGLETRANSLATE(B2,"en","es")`)
	require.Contains(t, string(decompress(t, content, "xl/worksheets/sheet1.xml")),
		`GOOGLETRANSLATE(B2,"en","ja")`)
}
