// Package strutil provides string tokenizing helpers for line based text
// formats.
package strutil

import (
	"strings"
)

// SplitString splits s at any of the delimiters.
// Empty tokens are dropped if trimEmpty is true.
func SplitString(s, delimiters string, trimEmpty bool) []string {
	var tokens []string
	for {
		pos := strings.IndexAny(s, delimiters)
		if pos < 0 {
			if s != "" || !trimEmpty {
				tokens = append(tokens, s)
			}
			return tokens
		}
		if pos > 0 || !trimEmpty {
			tokens = append(tokens, s[:pos])
		}
		s = s[pos+1:]
	}
}

func LeftStripString(s, chars string) string {
	return strings.TrimLeft(s, chars)
}

func RightStripString(s, chars string) string {
	return strings.TrimRight(s, chars)
}

// StripString removes leading and trailing characters contained in chars.
func StripString(s, chars string) string {
	return strings.Trim(s, chars)
}

// WordLength returns the length of the word starting at start.
// A word consists of ASCII letters, digits and validChars.
func WordLength(doc string, start int, validChars string) int {
	var n int
	for i := start; i < len(doc); i++ {
		if c := doc[i]; !isAlnum(c) && strings.IndexByte(validChars, c) < 0 {
			break
		}
		n++
	}
	return n
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
