package utils

import "strings"

// charsPerToken is the rough ratio used for budgeting prompts. It is not a
// tokenizer; real counts vary by model.
const charsPerToken = 4

// CountTokens estimates the number of tokens in text. Any non-empty text
// counts as at least one token.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if n := len([]rune(text)) / charsPerToken; n > 0 {
		return n
	}
	return 1
}

// TruncateToTokenLimit cuts text to roughly limit tokens. When the cut falls
// inside a line, it backs up to the previous line break if one exists in the
// second half of the kept text, so structured context (YAML, tables) is not
// left with a dangling half line.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * charsPerToken
	if charLimit >= len(runes) {
		return text
	}
	kept := string(runes[:charLimit])
	if i := strings.LastIndexByte(kept, '\n'); i >= len(kept)/2 {
		return kept[:i+1]
	}
	return kept
}
