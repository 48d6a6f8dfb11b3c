package normalize

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	dStroke = strings.NewReplacer("đ", "d", "Đ", "d")

	// Hyphen, figure/en/em dashes, horizontal bar and minus sign all read as
	// a range separator.
	dashes = strings.NewReplacer(
		"‐", "-", "‑", "-", "‒", "-", "–", "-",
		"—", "-", "―", "-", "−", "-",
	)
)

// Fold lowercases s, strips Vietnamese diacritics and transliterates what is
// left to ASCII, so "Thương lượng" and "thuong luong" compare equal and
// "10 – 15" keeps its range hyphen.
func Fold(s string) string {
	s = dashes.Replace(strings.ToLower(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(unidecode.Unidecode(dStroke.Replace(out)))
}
