package language_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/language"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"es", "es", true},
		{"ES", "es", true},
		{"es_ES", "es", true},
		{"es-MX", "es", true},
		{"Spanish", "es", true},
		{"spanish", "es", true},
		{"  Spanish  ", "es", true},
		{"Spanish (es)", "es", true},
		{"🇪🇸 Spanish", "es", true},
		{"pt-BR", "pt-BR", true},
		{"pt_br", "pt-BR", true},
		{"Brazilian Portuguese", "pt-BR", true},
		{"Chinese", "zh-CN", true},
		{"zh-TW", "zh-TW", true},
		{"Ukrain", "uk", true}, // unambiguous prefix
		{"Klingon", "", false},
		{"", "", false},
		{"123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := language.Resolve(tt.header)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_AmbiguousPrefix(t *testing.T) {
	// "Po" prefixes both Polish and Portuguese.
	_, ok := language.Resolve("Po")
	require.False(t, ok)
}

func TestByCode(t *testing.T) {
	l, ok := language.ByCode("DE")
	require.True(t, ok)
	require.Equal(t, "de", l.Code)
	require.Equal(t, "German", l.Name)

	_, ok = language.ByCode("xx")
	require.False(t, ok)
}

func TestIsSupported(t *testing.T) {
	require.True(t, language.IsSupported("ja"))
	require.False(t, language.IsSupported("tlh"))
}

func TestAll_NotEmpty(t *testing.T) {
	all := language.All()
	require.NotEmpty(t, all)
	for _, l := range all {
		require.NotEmpty(t, l.Code)
		require.NotEmpty(t, l.Name)
	}
}
