package domain

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// multiSpaceRe collapses runs of spaces and tabs left behind by pasted
	// HTML; newlines are kept because they carry paragraph structure.
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

	// multiNewlineRe caps consecutive blank lines at one.
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// cleanupText strips HTML markup from a free-text field and tidies the
// whitespace. AW descriptions are user-entered markdown-ish HTML with
// stray tags, repeated spaces, and runs of blank lines.
func cleanupText(s string) string {
	if s == "" {
		return ""
	}

	s = removeBackslashes(s)
	s = stripHTML(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripHTML returns the text content of an HTML fragment. Input that is not
// actually HTML passes through unchanged.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// removeBackslashes drops the escape backslashes AW leaves in names like
// "Sant\'Anna".
func removeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\`, "")
}

// abstractLimit caps the length of a derived abstract, in characters.
const abstractLimit = 500

// deriveAbstract builds a short abstract from a reach description when the
// source provides none: clean the text, cut at the limit, trim back to the
// last full word, and mark the elision.
func deriveAbstract(description string) string {
	text := cleanupText(description)
	if text == "" {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= abstractLimit {
		return text
	}

	cut := string(runes[:abstractLimit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
