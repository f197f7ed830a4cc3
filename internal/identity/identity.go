// Package identity derives the canonical book identifier: a validated
// ISBN-13, else a validated ISBN-10, else a content hash of the normalized
// title, first author and publisher.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/lehigh-university-libraries/bookmerge/internal/normalize"
)

// HashLength is the number of hex characters kept from the content digest.
const HashLength = 16

// Fields is the subset of a record the resolver looks at.
type Fields struct {
	ISBN13    string
	ISBN10    string
	Title     string
	Authors   []string
	Publisher string
}

// Resolver assigns identity keys. The zero value checks digit counts only;
// StrictChecksum additionally requires valid ISBN check digits.
type Resolver struct {
	StrictChecksum bool
}

// Resolve returns the identity key for a record. It is pure: identical
// normalized inputs always give the same key.
func (r Resolver) Resolve(f Fields) string {
	if isbn := r.ISBN13(f.ISBN13); isbn != "" {
		return isbn
	}
	if isbn := r.ISBN10(f.ISBN10); isbn != "" {
		return isbn
	}
	return ContentHash(f.Title, normalize.FirstAuthor(f.Authors), f.Publisher)
}

// ISBN13 returns the cleaned identifier when it is valid, or "".
func (r Resolver) ISBN13(s string) string {
	s = clean(s)
	if !isDigits(s, 13) {
		return ""
	}
	if r.StrictChecksum && !checksum13(s) {
		return ""
	}
	return s
}

// ISBN10 returns the cleaned identifier when it is valid, or "".
func (r Resolver) ISBN10(s string) string {
	s = clean(s)
	if len(s) != 10 || !isDigits(s[:9], 9) {
		return ""
	}
	if last := s[9]; !(last >= '0' && last <= '9') && last != 'X' {
		return ""
	}
	if r.StrictChecksum && !checksum10(s) {
		return ""
	}
	return s
}

// ContentHash is the fallback key for records without a usable ISBN. The
// digest only needs a low collision rate, not cryptographic strength.
func ContentHash(title, firstAuthor, publisher string) string {
	key := normalize.MatchKey(title) + "||" +
		strings.ToLower(strings.TrimSpace(firstAuthor)) + "||" +
		strings.ToLower(normalize.CleanPublisher(publisher))
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// IsHashKey reports whether a key came from ContentHash rather than an ISBN.
func IsHashKey(key string) bool {
	if len(key) != HashLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	return strings.ToUpper(strings.TrimSuffix(s, ".0"))
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func checksum13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		d := int(s[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

func checksum10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		var d int
		if s[i] == 'X' {
			d = 10
		} else {
			d = int(s[i] - '0')
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}
