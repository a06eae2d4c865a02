package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FoldTurkish lower-cases s with Turkish rules and maps the dotless ı to i,
// so "YILLIK", "Yıllık" and "yillik" compare equal, as do "İSTASYON" and "Istasyon".
func FoldTurkish(s string) string {
	lower := cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	return strings.ReplaceAll(lower, "ı", "i")
}

// ContainsFold reports whether needle occurs in haystack after Turkish folding.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(FoldTurkish(haystack), FoldTurkish(needle))
}
