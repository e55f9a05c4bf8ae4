// Package textnorm folds French text for matching and repairs form
// submissions posted in ISO-8859-1.
package textnorm

import (
	"bytes"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics, so "Élodie" matches "elodie".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Contains reports whether needle occurs in haystack once both are folded.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// Equal reports whether a and b are equal once folded.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// UTF8Reader returns body as UTF-8. Bodies that are not valid UTF-8 are
// decoded as ISO-8859-1, which older browsers use for form posts.
func UTF8Reader(body []byte) io.Reader {
	if utf8.Valid(body) {
		return bytes.NewReader(body)
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))
}

// ToUTF8 is UTF8Reader for whole buffers.
func ToUTF8(body []byte) []byte {
	if utf8.Valid(body) {
		return body
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return out
}
