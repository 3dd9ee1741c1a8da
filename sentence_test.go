package morsel

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFindSentenceBoundariesBasic(t *testing.T) {
	text := "Hello world. This is a test. Done here."
	boundaries := findSentenceBoundaries(text)
	if len(boundaries) != 2 {
		t.Fatalf("got %d boundaries %v, want 2", len(boundaries), boundaries)
	}
	if text[boundaries[0]:boundaries[0]+4] != "This" {
		t.Errorf("first boundary at %d, expected start of second sentence", boundaries[0])
	}
	if text[boundaries[1]:boundaries[1]+4] != "Done" {
		t.Errorf("second boundary at %d, expected start of third sentence", boundaries[1])
	}
}

func TestFindSentenceBoundariesAbbreviations(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"Dr. Smith went home. He was tired.", 1},
		{"Mr. and Mrs. Jones arrived. They left early.", 1},
		{"See fig. 3 for details. The data is clear.", 1},
		{"Companies like Acme Inc. are growing. Others shrink.", 1},
	}
	for _, c := range cases {
		got := findSentenceBoundaries(c.text)
		if len(got) != c.want {
			t.Errorf("%q: %d boundaries %v, want %d", c.text, len(got), got, c.want)
		}
	}
}

func TestFindSentenceBoundariesDecimals(t *testing.T) {
	text := "Pi is roughly 3.14 in value. The price is $1.50 today. Done."
	boundaries := findSentenceBoundaries(text)
	if len(boundaries) != 2 {
		t.Fatalf("got %d boundaries %v, want 2", len(boundaries), boundaries)
	}
	for _, b := range boundaries {
		if !strings.HasPrefix(text[b:], "The") && !strings.HasPrefix(text[b:], "Done") {
			t.Errorf("boundary at %d lands mid-number: %q", b, text[b:])
		}
	}
}

func TestFindSentenceBoundariesCJK(t *testing.T) {
	text := "今日は晴れです。明日は雨です！本当ですか？"
	boundaries := findSentenceBoundaries(text)
	if len(boundaries) != 3 {
		t.Fatalf("got %d boundaries %v, want 3", len(boundaries), boundaries)
	}
	for _, b := range boundaries {
		if b < len(text) && !utf8.RuneStart(text[b]) {
			t.Errorf("boundary %d is not a rune start", b)
		}
	}
}

func TestSentenceSpansPartitionExactly(t *testing.T) {
	texts := []string{
		"One. Two. Three.",
		"No terminator at all",
		"Dr. Smith charges $1.50 per visit. Cheap!",
		"日本語の文です。次の文です。",
	}
	for _, text := range texts {
		spans := sentenceSpans(text)
		pos := 0
		for i, s := range spans {
			if s.start != pos {
				t.Errorf("%q: span %d starts at %d, want %d", text, i, s.start, pos)
			}
			pos = s.end
		}
		if pos != len(text) {
			t.Errorf("%q: spans end at %d, want %d", text, pos, len(text))
		}
	}
}

func TestSplitByDelimitersPolicies(t *testing.T) {
	text := "a,b,c"

	prev := splitByDelimiters(text, []string{","}, IncludeDelimPrev)
	if got := spanTexts(text, prev); !equalStrings(got, []string{"a,", "b,", "c"}) {
		t.Errorf("prev policy: %q", got)
	}

	next := splitByDelimiters(text, []string{","}, IncludeDelimNext)
	if got := spanTexts(text, next); !equalStrings(got, []string{"a", ",b", ",c"}) {
		t.Errorf("next policy: %q", got)
	}

	none := splitByDelimiters(text, []string{","}, IncludeDelimNone)
	if got := spanTexts(text, none); !equalStrings(got, []string{"a", ",", "b", ",", "c"}) {
		t.Errorf("none policy: %q", got)
	}

	// Every policy partitions the text exactly.
	for _, spans := range [][]span{prev, next, none} {
		var b strings.Builder
		for _, s := range spans {
			b.WriteString(text[s.start:s.end])
		}
		if b.String() != text {
			t.Errorf("spans do not cover text: %q", b.String())
		}
	}
}

func TestSplitWhitespaceKeepsTrailingRuns(t *testing.T) {
	text := "one  two\tthree "
	spans := splitWhitespace(text)
	got := spanTexts(text, spans)
	want := []string{"one  ", "two\t", "three "}
	if !equalStrings(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeShortSpans(t *testing.T) {
	// Leading short spans merge forward; the short trailing span folds back
	// into the previous one, so coverage never shrinks.
	spans := []span{{0, 3}, {3, 5}, {5, 20}, {20, 22}}
	merged := mergeShortSpans(spans, 6)
	if len(merged) != 1 || merged[0] != (span{0, 22}) {
		t.Fatalf("got %v, want a single covering span", merged)
	}

	spans = []span{{0, 10}, {10, 12}, {12, 30}}
	merged = mergeShortSpans(spans, 6)
	want := []span{{0, 10}, {10, 30}}
	if len(merged) != len(want) {
		t.Fatalf("got %v, want %v", merged, want)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("span %d = %v, want %v", i, merged[i], want[i])
		}
	}
}

func TestAlignBoundary(t *testing.T) {
	// e followed by a combining acute accent.
	text := "cafe\u0301 bar"

	// Position inside the combining sequence moves past it.
	inside := 4 // between 'e' and the combining mark
	aligned := alignBoundary(text, inside)
	if aligned <= inside {
		t.Errorf("alignBoundary(%d) = %d, want a later position", inside, aligned)
	}
	if !utf8.RuneStart(text[aligned]) {
		t.Errorf("aligned position %d is not a rune start", aligned)
	}

	// Position inside a multi-byte rune moves to the next boundary.
	emoji := "ab🎉cd"
	for pos := 3; pos < 6; pos++ {
		got := alignBoundary(emoji, pos)
		if got != 6 {
			t.Errorf("alignBoundary(%q, %d) = %d, want 6", emoji, pos, got)
		}
	}

	// Clamping.
	if got := alignBoundary("abc", -1); got != 0 {
		t.Errorf("negative position: %d", got)
	}
	if got := alignBoundary("abc", 10); got != 3 {
		t.Errorf("past end: %d", got)
	}
}

func spanTexts(text string, spans []span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = text[s.start:s.end]
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
