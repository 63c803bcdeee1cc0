package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"+375 29 123-45-67", "+375291234567", true},
		{"375291234567", "+375291234567", true},
		{"8 (029) 123-45-67", "+375291234567", true},
		{"80291234567", "+375291234567", true},
		{"291234567", "+375291234567", true},
		{"(29) 123 45 67", "+375291234567", true},
		{"12345", "", false},
		{"+7 495 123 45 67", "", false},
		{"", "", false},
		{"позвоните нам", "", false},
	}
	for _, c := range cases {
		got, ok := Phone(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestPhonesDedupAndSort(t *testing.T) {
	got := Phones([]string{
		"+375 33 765-43-21",
		"80291234567",
		"+375291234567", // same as previous after canonicalization
		"not a phone",
	})
	assert.Equal(t, []string{"+375291234567", "+375337654321"}, got)
}

func TestExtractPhones(t *testing.T) {
	text := "Ремонт авто. Звоните +375 29 123-45-67 или 8029 765-43-21, работаем с 9:00"
	raw := ExtractPhones(text)
	got := Phones(raw)
	assert.Equal(t, []string{"+375291234567", "+375297654321"}, got)

	assert.Empty(t, ExtractPhones("цена 1234567 руб"))
}
