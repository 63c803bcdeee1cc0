package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// Phone-looking runs in free text: +375 29 123-45-67, 80291234567 and the
// like. Bare 9-digit runs are deliberately not matched here; in prose they
// are usually prices or ids.
var rePhoneInText = regexp.MustCompile(`(?:\+?375|80)[\s\-()]{0,3}\d[\d\s\-()]{6,14}\d`)

// ExtractPhones pulls phone-shaped substrings out of free text. The result
// is still raw; Phones canonicalizes and validates it.
func ExtractPhones(text string) []string {
	return rePhoneInText.FindAllString(text, -1)
}

// Phone canonicalizes a raw phone string to +375XXXXXXXXX. Belarus numbers
// are nine digits after the country code; anything that does not reduce to
// that is rejected rather than stored raw.
func Phone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "375") && len(digits) == 12:
		return "+" + digits, true
	case strings.HasPrefix(digits, "80") && len(digits) == 11:
		return "+375" + digits[2:], true
	case len(digits) == 9:
		return "+375" + digits, true
	}
	return "", false
}

// Phones canonicalizes a batch, dropping invalid entries and duplicates.
// The result is sorted so equal sets compare equal.
func Phones(raw []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range raw {
		p, ok := Phone(r)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
