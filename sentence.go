package morsel

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// abbreviations that should NOT be treated as sentence boundaries.
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"prof": true, "sr": true, "jr": true,
	"vs": true, "etc": true, "inc": true, "ltd": true,
	"e.g": true, "i.e": true, "viz": true, "al": true,
	"approx": true, "dept": true, "est": true,
	"fig": true, "no": true, "vol": true,
}

// isAbbreviation checks if the text ending at dotPos (the '.') is a common
// abbreviation.
func isAbbreviation(text string, dotPos int) bool {
	// Walk backward to find the start of the word before the dot.
	start := dotPos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= size
	}
	word := strings.ToLower(text[start:dotPos])
	return abbreviations[word]
}

// isDecimalDot checks if the dot at dotPos is part of a number (3.14, $1.50).
func isDecimalDot(text string, dotPos int) bool {
	if dotPos == 0 || dotPos+1 >= len(text) {
		return false
	}
	prevByte := text[dotPos-1]
	nextByte := text[dotPos+1]
	return prevByte >= '0' && prevByte <= '9' && nextByte >= '0' && nextByte <= '9'
}

// findSentenceBoundaries returns ascending byte positions suitable for
// splitting text at sentence boundaries. Handles ASCII punctuation (.!?) with
// abbreviation and decimal number awareness, plus CJK sentence-ending
// punctuation (。！？).
func findSentenceBoundaries(text string) []int {
	var boundaries []int
	runes := []rune(text)
	n := len(runes)

	// Build a byte-offset map for rune positions.
	byteOffsets := make([]int, n+1)
	off := 0
	for i, r := range runes {
		byteOffsets[i] = off
		off += utf8.RuneLen(r)
	}
	byteOffsets[n] = off

	for i := 0; i < n; i++ {
		r := runes[i]

		// CJK sentence-ending punctuation — always a boundary after.
		if r == '。' || r == '！' || r == '？' {
			boundaries = append(boundaries, byteOffsets[i+1])
			continue
		}

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		dotBytePos := byteOffsets[i]

		// Skip decimal numbers like 3.14.
		if r == '.' && isDecimalDot(text, dotBytePos) {
			continue
		}

		// Skip abbreviations like Mr., Dr., etc.
		if r == '.' && isAbbreviation(text, dotBytePos) {
			continue
		}

		// Need whitespace or newline after punctuation.
		if i+1 < n && (runes[i+1] == ' ' || runes[i+1] == '\n') {
			if runes[i+1] == '\n' {
				boundaries = append(boundaries, byteOffsets[i+1])
			} else if i+2 < n && unicode.IsUpper(runes[i+2]) {
				boundaries = append(boundaries, byteOffsets[i+2])
			} else if i+2 >= n {
				boundaries = append(boundaries, byteOffsets[n])
			}
		}
	}
	return boundaries
}

// sentenceSpans partitions text into sentence spans at detected boundaries.
// The spans cover the text exactly; nothing is trimmed or dropped.
func sentenceSpans(text string) []span {
	boundaries := findSentenceBoundaries(text)
	var spans []span
	start := 0
	for _, b := range boundaries {
		if b <= start || b >= len(text) {
			continue
		}
		spans = append(spans, span{start, b})
		start = b
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// splitByDelimiters partitions text on the earliest occurrence of any
// delimiter, applying the attachment policy. The resulting spans always cover
// the text exactly; with IncludeDelimNone the delimiter becomes its own span
// rather than disappearing.
func splitByDelimiters(text string, delims []string, policy IncludeDelim) []span {
	var spans []span
	start := 0
	i := 0
	for i < len(text) {
		var matched string
		for _, d := range delims {
			if strings.HasPrefix(text[i:], d) {
				matched = d
				break
			}
		}
		if matched == "" {
			i++
			continue
		}
		switch policy {
		case IncludeDelimPrev:
			end := i + len(matched)
			spans = append(spans, span{start, end})
			start = end
			i = end
		case IncludeDelimNext:
			if i > start {
				spans = append(spans, span{start, i})
			}
			start = i
			i += len(matched)
		case IncludeDelimNone:
			if i > start {
				spans = append(spans, span{start, i})
			}
			spans = append(spans, span{i, i + len(matched)})
			start = i + len(matched)
			i = start
		}
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// splitWhitespace partitions text so each span holds one word plus its
// trailing whitespace run.
func splitWhitespace(text string) []span {
	var spans []span
	start := 0
	inSpace := false
	for i, r := range text {
		isSpace := unicode.IsSpace(r)
		if inSpace && !isSpace {
			spans = append(spans, span{start, i})
			start = i
		}
		inSpace = isSpace
	}
	if start < len(text) {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// mergeShortSpans absorbs spans shorter than minLen into the following span
// (or the previous one for a short trailing span). Spans must be contiguous.
func mergeShortSpans(spans []span, minLen int) []span {
	if minLen <= 0 || len(spans) <= 1 {
		return spans
	}
	var out []span
	i := 0
	for i < len(spans) {
		cur := spans[i]
		for cur.len() < minLen && i+1 < len(spans) {
			i++
			cur.end = spans[i].end
		}
		out = append(out, cur)
		i++
	}
	if len(out) > 1 && out[len(out)-1].len() < minLen {
		out[len(out)-2].end = out[len(out)-1].end
		out = out[:len(out)-1]
	}
	return out
}

// buildSentences materializes spans into sentence values with one batched
// token count call.
func buildSentences(text string, spans []span, tok Tokenizer) []sentence {
	texts := make([]string, len(spans))
	for i, s := range spans {
		texts[i] = text[s.start:s.end]
	}
	counts := tok.CountTokensBatch(texts)
	out := make([]sentence, len(spans))
	for i, s := range spans {
		out[i] = sentence{text: texts[i], start: s.start, end: s.end, tokenCount: counts[i]}
	}
	return out
}

// alignBoundary moves pos forward to the nearest position that neither falls
// inside a UTF-8 sequence nor separates a combining mark from its base rune.
func alignBoundary(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(text) {
		return len(text)
	}
	for pos < len(text) && !utf8.RuneStart(text[pos]) {
		pos++
	}
	if pos >= len(text) {
		return len(text)
	}
	if b := norm.NFC.FirstBoundaryInString(text[pos:]); b > 0 {
		pos += b
	} else if b < 0 {
		return len(text)
	}
	return pos
}
