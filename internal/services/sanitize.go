package services

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const maxSanitizePasses = 4

// sanitizeText strips markup and unprintable characters from user-entered
// names. The policy output is decoded so "Food & Drink" is stored as typed,
// and the pair is repeated until stable so entity-encoded markup cannot come
// back to life after decoding. Input that never settles keeps the escaped form.
func sanitizeText(s string) string {
	settled := false
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			settled = true
			break
		}
		s = next
	}
	if !settled {
		s = strictPolicy.Sanitize(s)
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}
