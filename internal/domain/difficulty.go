package domain

import "strings"

// ParseDifficultyParts splits a combined whitewater class like "IV-V(V+)"
// into minimum, maximum, and outlier parts. The minimum before the dash and
// the parenthesized outlier are both optional: "III" yields ("", "III", "")
// and "V+" yields ("", "V+", ""). A trailing "+" or "-" modifier belongs to
// the class it follows, so "V-" is a maximum of V-minus, not a range.
func ParseDifficultyParts(combined string) (minimum, maximum, outlier string) {
	s := strings.TrimSpace(combined)
	if s == "" {
		return "", "", ""
	}

	// Peel off a trailing "(X)" outlier first.
	if open := strings.LastIndex(s, "("); open >= 0 {
		rest := strings.TrimSuffix(s[open+1:], ")")
		outlier = strings.TrimSpace(rest)
		s = strings.TrimSpace(s[:open])
	}

	// A dash splits min from max only when a class character follows it;
	// otherwise the dash is the minus modifier of a single class.
	if i := rangeSplitIndex(s); i >= 0 {
		minimum = s[:i]
		maximum = s[i+1:]
	} else {
		maximum = s
	}
	return minimum, maximum, outlier
}

// rangeSplitIndex finds the dash separating a difficulty range, or -1.
func rangeSplitIndex(s string) int {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '-' && isClassChar(s[i+1]) {
			return i
		}
	}
	return -1
}

// isClassChar reports whether c can start a whitewater class: a Roman
// numeral or the "5.x" scale digit.
func isClassChar(c byte) bool {
	return c == 'I' || c == 'V' || (c >= '0' && c <= '9')
}
