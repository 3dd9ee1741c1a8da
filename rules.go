package morsel

// IncludeDelim controls which side of a split keeps the delimiter text.
type IncludeDelim int

const (
	// IncludeDelimPrev appends the delimiter to the split before it.
	IncludeDelimPrev IncludeDelim = iota
	// IncludeDelimNext prepends the delimiter to the split after it.
	IncludeDelimNext
	// IncludeDelimNone leaves the delimiter as its own split. It is absorbed
	// into a neighbor by the minimum-size merge pass, which keeps offsets
	// covering the whole input.
	IncludeDelimNone
)

// RecursiveLevel is one stage of hierarchical splitting. Exactly one of the
// three forms applies: delimiter strings, whitespace splitting, or neither,
// which means raw token slicing.
type RecursiveLevel struct {
	// Delimiters to split on, tried in order of appearance in the text.
	Delimiters []string
	// Whitespace splits on whitespace runs when no delimiters are given.
	Whitespace bool
	// IncludeDelim is the delimiter attachment policy for this level.
	IncludeDelim IncludeDelim
}

// isTokenLevel reports whether this level falls through to token slicing.
func (l RecursiveLevel) isTokenLevel() bool {
	return len(l.Delimiters) == 0 && !l.Whitespace
}

// RecursiveRules is an ordered, immutable level list. Recursion depth is
// bounded by the number of levels, and rules are shared read-only across
// concurrent Chunk calls.
type RecursiveRules struct {
	Levels []RecursiveLevel
}

// DefaultRules splits by paragraphs, then lines, then sentences, then
// whitespace, then raw tokens.
func DefaultRules() RecursiveRules {
	return RecursiveRules{Levels: []RecursiveLevel{
		{Delimiters: []string{"\n\n", "\r\n\r\n"}, IncludeDelim: IncludeDelimPrev},
		{Delimiters: []string{"\n", "\r\n"}, IncludeDelim: IncludeDelimPrev},
		{Delimiters: []string{". ", "! ", "? ", "。", "！", "？"}, IncludeDelim: IncludeDelimPrev},
		{Whitespace: true},
		{}, // token slicing
	}}
}

func (r RecursiveRules) validate() error {
	if len(r.Levels) == 0 {
		return configError("rules", "need at least one level")
	}
	for i, l := range r.Levels {
		for _, d := range l.Delimiters {
			if d == "" {
				return configError("rules", "level %d has an empty delimiter", i)
			}
		}
		if len(l.Delimiters) > 0 && l.Whitespace {
			return configError("rules", "level %d sets both delimiters and whitespace", i)
		}
	}
	return nil
}
