// Package names normalizes player names: nickname canonicalization,
// diacritic folding, and the matching rule used to pair watch labels
// with upstream participant names.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nicknames maps common short forms users type to canonical English
// names as the upstream source spells them.
var nicknames = map[string]string{
	"sinner":     "Jannik Sinner",
	"alcaraz":    "Carlos Alcaraz",
	"djokovic":   "Novak Djokovic",
	"medvedev":   "Daniil Medvedev",
	"rublev":     "Andrey Rublev",
	"zverev":     "Alexander Zverev",
	"musetti":    "Lorenzo Musetti",
	"de minaur":  "Alex de Minaur",
	"rune":       "Holger Rune",
	"tsitsipas":  "Stefanos Tsitsipas",
	"fritz":      "Taylor Fritz",
	"hurkacz":    "Hubert Hurkacz",
	"khachanov":  "Karen Khachanov",
	"dimitrov":   "Grigor Dimitrov",
	"shelton":    "Ben Shelton",
	"swiatek":    "Iga Swiatek",
	"sabalenka":  "Aryna Sabalenka",
	"rybakina":   "Elena Rybakina",
	"gauff":      "Coco Gauff",
	"kasatkina":  "Daria Kasatkina",
	"andreeva":   "Mirra Andreeva",
	"kalinskaya": "Anna Kalinskaya",
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Canonicalize resolves a user-typed name against the known-nickname
// table. Unknown names are returned trimmed but otherwise as typed.
func Canonicalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := nicknames[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// Fold lowercases a name and strips diacritic marks, so that
// "Đoković" and "dokovic" compare equal.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	// Stroked letters survive Mn removal; map the common tennis ones.
	folded = strings.NewReplacer("đ", "d", "Đ", "D", "ł", "l", "Ł", "L").Replace(folded)
	return strings.ToLower(strings.TrimSpace(folded))
}

// Matches reports whether a watched label matches a participant name.
// The rule is a case- and diacritic-insensitive substring match in
// either direction, so "De Minaur" matches "Alex de Minaur".
func Matches(label, participant string) bool {
	l, p := Fold(label), Fold(participant)
	if l == "" || p == "" {
		return false
	}
	return strings.Contains(p, l) || strings.Contains(l, p)
}
