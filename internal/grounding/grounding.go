// Package grounding flags answers that do not appear to come from the
// supplied context.
package grounding

import (
	"strings"

	"github.com/bull/groundchat/internal/prompt"
)

// Warning is prepended to answers that fail the check.
const Warning = "Warning: The AI's answer may not be strictly based on your uploaded files."

// Check reports whether answer is grounded in chunks. With no chunks there is
// nothing to check against and the answer passes. Otherwise the answer must
// quote a chunk verbatim or decline with the fallback phrase.
func Check(answer string, chunks []string) bool {
	if len(chunks) == 0 {
		return true
	}
	if strings.Contains(answer, prompt.FallbackPhrase) {
		return true
	}
	for _, chunk := range chunks {
		c := strings.TrimSpace(chunk)
		if c != "" && strings.Contains(answer, c) {
			return true
		}
	}
	return false
}

// Annotate returns the text to show the user and whether the answer passed.
func Annotate(answer string, chunks []string) (string, bool) {
	if Check(answer, chunks) {
		return answer, true
	}
	return Warning + "\n" + answer, false
}
