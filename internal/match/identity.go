package match

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
	"github.com/LinkfordSolutions/lead-scraper-system/internal/normalize"
)

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowers, strips diacritics and collapses whitespace so that
// transliteration-level variants of the same name produce the same bytes.
// ё folds to е for the same reason.
func Fold(s string) string {
	s = strings.ToLower(normalize.CleanText(s))
	if out, _, err := transform.String(foldMarks, s); err == nil {
		s = out
	}
	s = strings.ReplaceAll(s, "ё", "е")
	return s
}

func hashKey(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// NameKey fingerprints a lead by folded name + city + category.
func NameKey(name, city string, cat domain.Category) string {
	return hashKey("name", Fold(name), Fold(city), string(cat))
}

// PhoneKey fingerprints a lead by one canonical phone. Phones survive
// transliteration, so a phone-derived key is the stronger identity.
func PhoneKey(phone string) string {
	return hashKey("phone", phone)
}

// KeyFor derives the stable identity key used for upsert and duplicate
// lookup: the first canonical phone when the lead has any, the folded
// name+city+category fingerprint otherwise.
func KeyFor(l domain.Lead) string {
	if len(l.Phones) > 0 {
		return PhoneKey(l.Phones[0])
	}
	return NameKey(l.Name, l.City, l.Category)
}
