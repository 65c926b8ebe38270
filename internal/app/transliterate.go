package app

import "strings"

var umlauts = strings.NewReplacer(
	"ü", "ue",
	"Ü", "Ue",
	"ä", "ae",
	"Ä", "Ae",
	"ö", "oe",
	"Ö", "Oe",
	"ß", "ss",
	"+", "",
)

// Transliterate replaces German umlauts and sharp s with their ASCII
// spelling and drops '+'
func Transliterate(s string) string {
	return umlauts.Replace(s)
}

// ReadingName returns the reading prefix used for a waste type label
func ReadingName(label string) string {
	return strings.ReplaceAll(Transliterate(label), " ", "")
}
