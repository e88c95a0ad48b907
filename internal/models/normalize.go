// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a string into its comparison form: NFKC, lower case,
// trimmed, with internal whitespace runs collapsed to a single space.
//
//	Normalize("  Björk ") == "björk"
//	Normalize("ＡＢＣ   Song") == "abc song"
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// Sanitize removes non-printable characters and trims surrounding whitespace.
// Unlike Normalize it preserves case and inner spacing for display.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || unicode.IsPrint(r) {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}
