// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romUnsafe reports whether r is rendered differently, or not at all, by the
// A00 character ROM. 0x5c (backslash) and 0x7e (tilde) show as yen and right
// arrow but are kept, since there's nothing better to map them to.
func romUnsafe(r rune) bool {
	return r != '\n' && (r < 0x20 || r > 0x7e)
}

// Fold converts text to the subset of ASCII the controller shows as-is.
// Compatibility decomposition splits accents and ligatures off first, so
// "café" becomes "cafe" and "ﬁ" becomes "fi"; anything left outside the range
// is dropped. Newlines are kept. Bytes sent through Write are not folded, so
// custom glyphs (0-7) and the ROM's upper half stay reachable.
func Fold(text string) string {
	// Chains carry state, so one is built per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(romUnsafe)))
	s, _, err := transform.String(t, text)
	if err != nil {
		return ""
	}
	return s
}
