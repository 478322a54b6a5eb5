package ai

import (
	"regexp"
	"strings"
)

// Chat models sometimes wrap their output in markdown or leak reasoning
// blocks; bot messages are plain text, so both are stripped.
var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicStarRe = regexp.MustCompile(`\*(.*?)\*`)
	italicRe     = regexp.MustCompile(`_(.*?)_`)
	headingRe    = regexp.MustCompile(`(?m)^#+\s*`)
	quoteRe      = regexp.MustCompile(`(?m)^>\s*`)
	bulletRe     = regexp.MustCompile(`(?m)^[\-\*•]\s*`)
	trailWSRe    = regexp.MustCompile(`[ \t]+\n`)
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes common markdown markup, leaving plain text.
func StripMarkdown(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicStarRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = quoteRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = trailWSRe.ReplaceAllString(text, "\n")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CleanModelOutput strips reasoning blocks and markdown from a model
// response.
func CleanModelOutput(text string) string {
	text = thinkBlockRe.ReplaceAllString(text, "")
	return StripMarkdown(text)
}
