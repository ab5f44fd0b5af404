/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package registry

import (
	"crypto/rand"
	"strings"
)

const (
	// CodeLength is the number of characters in a join code.
	CodeLength = 6

	// CodeAlphabet omits characters that are easy to confuse when read aloud
	// or off a screen (0/O, 1/I).
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RandomCode returns a crypto-random join code.
func RandomCode() string {
	const max = byte(255 - (256 % len(CodeAlphabet)))

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for _, b := range buf {
			if b > max {
				continue
			}

			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}

	return string(out)
}

// NormalizeCode canonicalizes user input for lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code (already normalized) could have been issued.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}

	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return false
		}
	}

	return true
}
