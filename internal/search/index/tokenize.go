package index

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize lowercases the input and splits it on anything that is not a
// letter or digit. The memory index uses it for both documents and queries
// so the two always agree.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// snippetRadius is how many runes of context surround the matched term.
const snippetRadius = 80

// ExtractSnippet returns a bounded excerpt of content around the first
// occurrence of any query term, falling back to the first sentence when no
// term occurs (a name-only hit). Cuts always land on rune boundaries.
func ExtractSnippet(content string, terms []string) string {
	// Lowercasing can change a rune's byte length, so offsets into the
	// lowered string must be mapped back before slicing the original.
	lower, toOriginal := lowerWithOffsets(content)
	matchStart, matchEnd := -1, 0
	for _, term := range terms {
		if idx := strings.Index(lower, term); idx >= 0 && (matchStart < 0 || idx < matchStart) {
			matchStart = idx
			matchEnd = idx + len(term)
		}
	}
	if matchStart < 0 {
		return firstSentence(content)
	}

	start := toOriginal[matchStart]
	for i := 0; i < snippetRadius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}
	end := toOriginal[matchEnd]
	for i := 0; i < snippetRadius && end < len(content); i++ {
		_, size := utf8.DecodeRuneInString(content[end:])
		end += size
	}

	snippet := strings.TrimSpace(content[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(content) {
		snippet += "…"
	}
	return snippet
}

// lowerWithOffsets lowercases content rune by rune and returns, for every
// byte position in the lowered string (plus one past the end), the offset of
// the original rune that produced it. Needed because ToLower is not
// length-preserving for every rune.
func lowerWithOffsets(content string) (string, []int) {
	var b strings.Builder
	b.Grow(len(content))
	offsets := make([]int, 0, len(content)+1)
	for i, r := range content {
		low := unicode.ToLower(r)
		for n := utf8.RuneLen(low); n > 0; n-- {
			offsets = append(offsets, i)
		}
		b.WriteRune(low)
	}
	offsets = append(offsets, len(content))
	return b.String(), offsets
}

// firstSentence cuts at the first sentence-ending punctuation, or returns
// a bounded prefix when the content has none.
func firstSentence(content string) string {
	if idx := strings.IndexAny(content, ".!?"); idx >= 0 {
		return strings.TrimSpace(content[:idx+1])
	}
	count := 0
	for i := range content {
		if count == 2*snippetRadius {
			return strings.TrimSpace(content[:i]) + "…"
		}
		count++
	}
	return strings.TrimSpace(content)
}
