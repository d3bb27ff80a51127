package language

import "strings"

// Language holds the code, English display name and flag emoji of a
// supported target language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Flag string `json:"flag"`
}

// table is the static set of supported languages. Codes follow what the
// Google Translate API accepts (ISO 639-1, plus region tags for Chinese
// and Brazilian Portuguese).
var table = []Language{
	{Code: "en", Name: "English", Flag: "🇬🇧"},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸"},
	{Code: "fr", Name: "French", Flag: "🇫🇷"},
	{Code: "de", Name: "German", Flag: "🇩🇪"},
	{Code: "it", Name: "Italian", Flag: "🇮🇹"},
	{Code: "pt", Name: "Portuguese", Flag: "🇵🇹"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)", Flag: "🇧🇷"},
	{Code: "nl", Name: "Dutch", Flag: "🇳🇱"},
	{Code: "pl", Name: "Polish", Flag: "🇵🇱"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺"},
	{Code: "uk", Name: "Ukrainian", Flag: "🇺🇦"},
	{Code: "tr", Name: "Turkish", Flag: "🇹🇷"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	{Code: "he", Name: "Hebrew", Flag: "🇮🇱"},
	{Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	{Code: "zh-CN", Name: "Chinese (Simplified)", Flag: "🇨🇳"},
	{Code: "zh-TW", Name: "Chinese (Traditional)", Flag: "🇹🇼"},
	{Code: "th", Name: "Thai", Flag: "🇹🇭"},
	{Code: "vi", Name: "Vietnamese", Flag: "🇻🇳"},
	{Code: "id", Name: "Indonesian", Flag: "🇮🇩"},
	{Code: "ms", Name: "Malay", Flag: "🇲🇾"},
	{Code: "sv", Name: "Swedish", Flag: "🇸🇪"},
	{Code: "no", Name: "Norwegian", Flag: "🇳🇴"},
	{Code: "da", Name: "Danish", Flag: "🇩🇰"},
	{Code: "fi", Name: "Finnish", Flag: "🇫🇮"},
	{Code: "cs", Name: "Czech", Flag: "🇨🇿"},
	{Code: "el", Name: "Greek", Flag: "🇬🇷"},
	{Code: "hu", Name: "Hungarian", Flag: "🇭🇺"},
	{Code: "ro", Name: "Romanian", Flag: "🇷🇴"},
}

// aliases maps alternate spellings and common names to table codes.
var aliases = map[string]string{
	"brazilian portuguese":  "pt-BR",
	"portuguese (brazil)":   "pt-BR",
	"portuguese (brazilian)": "pt-BR",
	"simplified chinese":    "zh-CN",
	"chinese simplified":    "zh-CN",
	"chinese":               "zh-CN",
	"mandarin":              "zh-CN",
	"traditional chinese":   "zh-TW",
	"chinese traditional":   "zh-TW",
	"castilian":             "es",
	"flemish":               "nl",
	"norwegian bokmal":      "no",
	"norwegian bokmål":      "no",
	"bahasa indonesia":      "id",
	"bahasa melayu":         "ms",
}

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(table))
	copy(out, table)
	return out
}

// ByCode looks up a language by its exact code (case-insensitive).
func ByCode(code string) (Language, bool) {
	for _, l := range table {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether code is in the table.
func IsSupported(code string) bool {
	_, ok := ByCode(code)
	return ok
}
