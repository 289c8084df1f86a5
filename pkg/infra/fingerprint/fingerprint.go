package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Size is the length of a hex encoded fingerprint.
const Size = sha256.Size * 2

type Fingerprint [sha256.Size]byte

// Of derives the content key for a raw input. Inputs that differ only in
// letter case or in the amount of surrounding/inner whitespace share a key.
func Of(text string) Fingerprint {
	return sha256.Sum256([]byte(Normalize(text)))
}

// Normalize lower-cases the text and collapses every run of Unicode
// whitespace into a single space, trimming both ends. Bytes that are not
// valid UTF-8 are copied through unchanged.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			pendingSpace = true
			i += size
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(text[i])
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		i += size
	}
	return b.String()
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}
