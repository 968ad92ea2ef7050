// Package match resolves canonical financial line items against the loosely
// labelled rows of a provider table.
package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// Ordinal or heading prefixes such as "I. ", "1. ", "A. ", "   - ".
	headingPrefix = regexp.MustCompile(`^[A-Z0-9.\s\-IXV]+[.\s\-]+`)
	// Parenthesized unit annotations and footnotes, e.g. "(đồng)".
	parenthesized = regexp.MustCompile(`\s*\(.*\)`)
)

// Normalize canonicalizes a row label for matching:
//
//	"I. Tiền và các khoản tương đương tiền" → "tiền và các khoản tương đương tiền"
//	"TỔNG CỘNG TÀI SẢN (đồng)"              → "tổng cộng tài sản"
//	"   -  Hàng tồn kho"                     → "hàng tồn kho"
//
// Every step runs to a fixpoint, with NFC reapplied after each removal and
// after lower-casing, so Normalize(Normalize(x)) == Normalize(x) for any x.
func Normalize(label string) string {
	s := label
	for {
		next := norm.NFC.String(strings.ToLower(strip(s)))
		if next == s {
			return s
		}
		s = next
	}
}

// strip removes heading prefixes and parenthesized groups until none remain.
// A removal can join a base letter with a combining mark, so each step is
// recomposed.
func strip(s string) string {
	s = tidy(s)
	for {
		next := tidy(headingPrefix.ReplaceAllString(s, ""))
		next = tidy(parenthesized.ReplaceAllString(next, ""))
		if next == s {
			return s
		}
		s = next
	}
}

func tidy(s string) string {
	return collapse(norm.NFC.String(s))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
