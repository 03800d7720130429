package footnote

import (
	"regexp"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// Match is one inline marker occurrence in a joined text, with byte
// offsets into that text and the bare key captured from the pattern.
type Match struct {
	Start int
	End   int
	Key   string
}

// Definition is one colon-suffixed definition occurrence. SectionStart
// includes the leading blank line; content runs from ContentStart to
// ContentEnd (the next definition or end of text).
type Definition struct {
	SectionStart int
	ContentStart int
	ContentEnd   int
	Key          string
}

// Pattern holds the compiled marker patterns for one configured prefix.
type Pattern struct {
	prefix string
	marker *regexp.Regexp
	def    *regexp.Regexp
	lead   *regexp.Regexp
}

// NewPattern compiles the marker patterns for a literal prefix. An
// inline reference is "[^<prefix><key>]"; the colon-suffixed form is a
// definition, not a reference.
func NewPattern(prefix string) *Pattern {
	quoted := regexp.QuoteMeta(prefix)
	return &Pattern{
		prefix: prefix,
		marker: regexp.MustCompile(`\[\^` + quoted + `(\w+)\]`),
		def:    regexp.MustCompile(`\n\n\[\^` + quoted + `(\w+)\]:[ \t]?`),
		lead:   regexp.MustCompile(`^\[\^` + quoted + `(\w+)\]:[ \t]?`),
	}
}

// Full renders the inline marker form for a bare key.
func (p *Pattern) Full(key string) string {
	return "[^" + p.prefix + key + "]"
}

// Markers returns every inline reference match in text, in order.
// Matches immediately followed by a colon are definition heads and are
// not references, so they are skipped here.
func (p *Pattern) Markers(text string) []Match {
	var out []Match
	for _, m := range p.marker.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if end < len(text) && text[end] == ':' {
			continue
		}
		out = append(out, Match{Start: start, End: end, Key: text[m[2]:m[3]]})
	}
	return out
}

// Definitions returns every blank-line-delimited definition head in
// text, with content bounds resolved against the following definition
// or end of text.
func (p *Pattern) Definitions(text string) []Definition {
	idx := p.def.FindAllStringSubmatchIndex(text, -1)
	defs := make([]Definition, 0, len(idx))
	for i, m := range idx {
		d := Definition{
			SectionStart: m[0],
			ContentStart: m[1],
			ContentEnd:   len(text),
			Key:          text[m[2]:m[3]],
		}
		if i+1 < len(idx) {
			d.ContentEnd = idx[i+1][0]
		}
		defs = append(defs, d)
	}
	return defs
}

// LeadingDefinition tests whether text begins with a colon-suffixed
// definition head anchored at line start, returning the key and the
// byte length of the matched head.
func (p *Pattern) LeadingDefinition(text string) (key string, headLen int, ok bool) {
	m := p.lead.FindStringSubmatchIndex(text)
	if m == nil {
		return "", 0, false
	}
	return text[m[2]:m[3]], m[1], true
}

// runIndexAt returns the index of the span owning the byte at pos,
// found by a running-length walk.
func runIndexAt(spans []richtext.RichText, pos int) int {
	offset := 0
	for i, s := range spans {
		end := offset + len(s.PlainText)
		if pos < end {
			return i
		}
		offset = end
	}
	return len(spans) - 1
}

// filterCodeRuns drops matches whose containing run carries the Code
// annotation; markers are not honored inside code-formatted text.
func filterCodeRuns(spans []richtext.RichText, matches []Match) []Match {
	out := matches[:0]
	for _, m := range matches {
		i := runIndexAt(spans, m.Start)
		if i >= 0 && spans[i].Annotation.Code {
			continue
		}
		out = append(out, m)
	}
	return out
}

// splitAtMarkers rebuilds a span sequence so every match becomes a
// dedicated single-purpose marker span. Matches are applied deepest
// first (right to left) so earlier offsets never shift underneath a
// later match still being processed. Re-running on an already-split
// sequence yields the same partition.
func splitAtMarkers(spans []richtext.RichText, matches []Match, mk func(key, display string) richtext.RichText) []richtext.RichText {
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		before, rest := richtext.SplitAt(spans, m.Start)
		mid, after := richtext.SplitAt(rest, m.End-m.Start)
		marker := mk(m.Key, richtext.Join(mid))
		spans = append(append(before, marker), after...)
	}
	return spans
}

// locationMarkers pairs a location with its code-filtered matches.
type locationMarkers struct {
	loc     *block.Location
	matches []Match
}

// scanBlock indexes a block and finds every honored inline marker,
// returning per-location matches, the total match count and the set of
// referenced keys.
func scanBlock(b *block.Block, pat *Pattern) (locs []locationMarkers, total int, keys map[string]bool) {
	keys = make(map[string]bool)
	for _, loc := range block.Locations(b) {
		matches := filterCodeRuns(loc.Spans, pat.Markers(richtext.Join(loc.Spans)))
		for _, m := range matches {
			keys[m.Key] = true
		}
		total += len(matches)
		locs = append(locs, locationMarkers{loc: loc, matches: matches})
	}
	return locs, total, keys
}

// splitBlockMarkers re-scans every location of the block and isolates
// each remaining inline marker into a flagged footnote marker span.
func splitBlockMarkers(b *block.Block, pat *Pattern) {
	for _, loc := range block.Locations(b) {
		matches := filterCodeRuns(loc.Spans, pat.Markers(richtext.Join(loc.Spans)))
		if len(matches) == 0 {
			continue
		}
		loc.Apply(splitAtMarkers(loc.Spans, matches, richtext.NewFootnoteMarker))
	}
}
