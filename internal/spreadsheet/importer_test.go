package spreadsheet_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/spreadsheet"
)

func TestParse_CSV(t *testing.T) {
	data := []byte("Slide,Original,Spanish\nSlide 1,Hello,Hola\nSlide 1,\"a, b\",\"c \"\"d\"\"\"\n")
	rows, err := spreadsheet.Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "a, b", rows[2][1])
	require.Equal(t, `c "d"`, rows[2][2])
}

func TestParse_RaggedCSV(t *testing.T) {
	data := []byte("Slide,Original,Spanish\nSlide 1,Hello\n")
	rows, err := spreadsheet.Parse(data)
	require.NoError(t, err)
	require.Len(t, rows[1], 2)
}

func TestParse_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, spreadsheet.WriteXLSX(&buf, exportSlides, "en", nil))
	rows, err := spreadsheet.Parse(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "Slide", rows[0][0])
}

func TestMapTranslations(t *testing.T) {
	rows := [][]string{
		{"Slide", "Original", "Spanish", "German"},
		{"Slide 1", "Hello", "Hola", "Hallo"},
		{"Slide 1", "World", "Mundo", "Welt"},
		{"Slide 2", "Bye", "Adiós", ""},
	}

	translations, stats, err := spreadsheet.MapTranslations(rows)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Rows)
	require.Equal(t, 0, stats.Skipped)
	require.Equal(t, []string{"es", "de"}, stats.Languages)

	require.Equal(t, "Hola\nMundo", translations[1]["es"])
	require.Equal(t, "Hallo\nWelt", translations[1]["de"])
	require.Equal(t, "Adiós", translations[2]["es"])
	_, hasGerman := translations[2]["de"]
	require.False(t, hasGerman)
}

func TestMapTranslations_HeaderVariants(t *testing.T) {
	rows := [][]string{
		{"#", "Source Text", "🇪🇸 Spanish", "Notes"},
		{"1", "Hello", "Hola", "check tone"},
	}

	translations, stats, err := spreadsheet.MapTranslations(rows)
	require.NoError(t, err)
	require.Equal(t, []string{"es"}, stats.Languages)
	require.Equal(t, "Hola", translations[1]["es"])
}

func TestMapTranslations_SlideRefVariants(t *testing.T) {
	rows := [][]string{
		{"Slide", "Original", "German"},
		{"slide #4", "a", "A"},
		{"Folie 5", "b", "B"},
		{"7", "c", "C"},
		{"not a slide", "d", "D"},
	}

	translations, stats, err := spreadsheet.MapTranslations(rows)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Rows)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, "A", translations[4]["de"])
	require.Equal(t, "B", translations[5]["de"])
	require.Equal(t, "C", translations[7]["de"])
}

func TestMapTranslations_NoLanguageColumns(t *testing.T) {
	rows := [][]string{
		{"Slide", "Original", "Notes"},
		{"Slide 1", "Hello", "n/a"},
	}
	_, _, err := spreadsheet.MapTranslations(rows)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "no language columns"))
}

func TestMapTranslations_NoRows(t *testing.T) {
	rows := [][]string{
		{"Slide", "Original", "Spanish"},
		{"Slide 1", "Hello", "   "},
	}
	_, _, err := spreadsheet.MapTranslations(rows)
	require.Error(t, err)
}

func TestMapTranslations_Empty(t *testing.T) {
	_, _, err := spreadsheet.MapTranslations(nil)
	require.Error(t, err)
}
