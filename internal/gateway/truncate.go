package gateway

import "strings"

// sentenceEnd reports whether a word closes a sentence.
func sentenceEnd(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?") || strings.HasSuffix(word, "…")
}

// truncateChars cuts text to at most limit runes, at the last whitespace
// before the cap when one exists.
func truncateChars(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// truncateWords cuts text to at most limit words, preferring to end at the
// last sentence-ending punctuation within the tail 30% of the cut, otherwise
// at the last whole word.
func truncateWords(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	words = words[:limit]

	tailStart := limit - limit*3/10
	if tailStart < 0 {
		tailStart = 0
	}
	for i := limit - 1; i >= tailStart; i-- {
		if sentenceEnd(words[i]) {
			return strings.Join(words[:i+1], " ")
		}
	}
	return strings.Join(words, " ")
}

// collapseWhitespace folds internal whitespace and newlines into single
// spaces.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// postprocess applies the outbound text constraints in order: character cap,
// word cap, whitespace collapse. Validation has already happened on the raw
// text by the time this runs.
func postprocess(text string, charLimit, wordLimit int) string {
	out := truncateChars(text, charLimit)
	out = truncateWords(out, wordLimit)
	return collapseWhitespace(out)
}
