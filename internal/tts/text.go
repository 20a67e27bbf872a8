package tts

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`#+`)
	markupRe  = regexp.MustCompile("[*_`>-]")
)

// CleanMarkdown strips markdown decoration so headings and emphasis markers
// are not read aloud by the narrator.
func CleanMarkdown(text string) string {
	text = headingRe.ReplaceAllString(text, "")
	text = markupRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
