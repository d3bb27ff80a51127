package language

import (
	"regexp"
	"strings"
	"unicode"
)

// parenCode matches a trailing parenthesized code, e.g. "Spanish (es)".
var parenCode = regexp.MustCompile(`\(([A-Za-z]{2}(?:[-_][A-Za-z]{2})?)\)\s*$`)

// Resolve maps a spreadsheet column header to a language code. Headers
// come from user-edited files, so several spellings are accepted:
//
//	"es", "ES", "es_ES"            exact or normalized code
//	"Spanish", "spanish"           English name, case-insensitive
//	"🇪🇸 Spanish", "Spanish (es)"   flag prefix / parenthesized code
//	"Brazilian Portuguese"         alias
func Resolve(header string) (string, bool) {
	h := strings.TrimSpace(stripNonLetters(header))
	if h == "" {
		return "", false
	}

	// "Spanish (es)" style: the parenthesized code wins.
	if m := parenCode.FindStringSubmatch(h); m != nil {
		if code, ok := normalizeCode(m[1]); ok {
			return code, true
		}
	}

	if code, ok := normalizeCode(h); ok {
		return code, true
	}

	lower := strings.ToLower(h)
	if code, ok := aliases[lower]; ok {
		return code, true
	}
	for _, l := range table {
		if strings.ToLower(l.Name) == lower {
			return l.Code, true
		}
	}

	// Last resort: unambiguous name prefix ("Portu" would be ambiguous,
	// "Ukrain" is not).
	var match string
	for _, l := range table {
		if strings.HasPrefix(strings.ToLower(l.Name), lower) {
			if match != "" {
				return "", false
			}
			match = l.Code
		}
	}
	return match, match != ""
}

// normalizeCode checks h against the table as a code, accepting
// underscore separators and locale variants like "es-ES".
func normalizeCode(h string) (string, bool) {
	code := strings.ReplaceAll(h, "_", "-")
	if l, ok := ByCode(code); ok {
		return l.Code, true
	}
	// "es-ES" -> "es", but keep region tags that are themselves entries
	// (pt-BR, zh-CN, zh-TW).
	if i := strings.IndexByte(code, '-'); i > 0 {
		if l, ok := ByCode(code[:i]); ok {
			return l.Code, true
		}
	}
	return "", false
}

// stripNonLetters drops leading emoji flags and other symbols so that
// "🇩🇪 German" resolves like "German".
func stripNonLetters(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
