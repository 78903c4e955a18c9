package news

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	idTitleUnits = 30
	idLength     = 16
)

// GenerateID derives a display key from the first 30 UTF-16 code units of
// a title. It reports false when the title is not valid UTF-8 or when the
// cut falls inside a surrogate pair. Equal prefixes give equal ids.
func GenerateID(title string) (string, bool) {
	prefix, whole := firstUTF16Units(title, idTitleUnits)
	if !whole || !utf8.ValidString(prefix) {
		return "", false
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(escapeURIComponent(prefix)))

	var b strings.Builder
	for i := 0; i < len(encoded) && b.Len() < idLength; i++ {
		c := encoded[i]
		if isAlnum(c) {
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

// firstUTF16Units returns the longest prefix of s that fits in n UTF-16
// code units. whole is false when the next rune would have been split.
func firstUTF16Units(s string, n int) (prefix string, whole bool) {
	units := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 1 {
			w = 1
		}
		if units+w > n {
			return s[:i], units == n
		}
		units += w
	}
	return s, true
}

// escapeURIComponent percent-encodes everything except the characters
// JavaScript's encodeURIComponent leaves alone.
func escapeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnum(c) || strings.IndexByte("-_.!~*'()", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomToken() string {
	var b strings.Builder
	max := big.NewInt(int64(len(tokenAlphabet)))
	for b.Len() < idLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return strings.Repeat("0", idLength)
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String()
}
