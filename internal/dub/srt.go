package dub

import (
	"regexp"
	"strings"
)

var (
	srtTimingRe = regexp.MustCompile(`\d+\s*\n\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)
	srtIndexRe  = regexp.MustCompile(`(?m)^\d+\s*$`)
	blankRunRe  = regexp.MustCompile(`\n{2,}`)
)

// SRTToPlainText strips cue numbers and timing lines from SubRip subtitle
// data, leaving only the spoken transcript.
func SRTToPlainText(srt []byte) string {
	text := string(srt)
	text = srtTimingRe.ReplaceAllString(text, "")
	text = blankRunRe.ReplaceAllString(text, "\n")
	text = srtIndexRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
