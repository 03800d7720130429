// Package citation detects in-text citation tokens inside block rich
// text, resolves them against a bibliography map and replaces them
// with marker spans, and renders/orders the final reference list.
package citation

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/bib"
	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// Citation is one recorded citation occurrence. Index is the
// first-appearance order number assigned by a page-level pass after
// all blocks are processed; SourceBlockIDs is likewise populated by
// the caller and empty at block-extraction time.
type Citation struct {
	Key            string   `json:"key"`
	FormattedEntry string   `json:"formatted_entry"`
	Authors        string   `json:"authors"`
	Year           string   `json:"year"`
	Index          int      `json:"index"`
	SourceBlockIDs []string `json:"source_block_ids"`
}

// In-text token formats recognized by configuration.
const (
	FormatPandoc = "pandoc" // [@key]
	FormatLaTeX  = "latex"  // \cite{key}
	FormatCall   = "call"   // cite(key)
)

var tokenPatterns = map[string]*regexp.Regexp{
	FormatPandoc: regexp.MustCompile(`\[@([\w:.-]+)\]`),
	FormatLaTeX:  regexp.MustCompile(`\\cite\{([\w:.-]+)\}`),
	FormatCall:   regexp.MustCompile(`cite\(([\w:.-]+)\)`),
}

// Extractor scans blocks for citation tokens in one configured format.
// The bibliography map is read-only and safe to share across workers.
type Extractor struct {
	format       string
	style        string
	bibliography map[string]bib.Entry
	logger       *zap.Logger
}

// NewExtractor creates a citation extractor for the given token format
// and bibliography style.
func NewExtractor(format, style string, bibliography map[string]bib.Entry, logger *zap.Logger) *Extractor {
	return &Extractor{
		format:       format,
		style:        style,
		bibliography: bibliography,
		logger:       logger,
	}
}

// ExtractBlock replaces resolvable citation tokens in the block with
// marker spans and returns the recorded citations. Tokens with unknown
// keys are left untouched; an unrecognized configured format logs a
// warning and returns the block unmodified.
func (e *Extractor) ExtractBlock(b *block.Block) []Citation {
	re, ok := tokenPatterns[e.format]
	if !ok {
		e.logger.Warn("unknown citation format, nothing to extract",
			zap.String("format", e.format))
		return nil
	}

	var citations []Citation
	for _, loc := range block.Locations(b) {
		text := richtext.Join(loc.Spans)
		matches := re.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			continue
		}

		spans := loc.Spans
		changed := false
		var found []Citation
		// Reverse order keeps earlier offsets stable while later
		// matches are rewritten.
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			start, end := m[0], m[1]
			key := text[m[2]:m[3]]

			if ri := runIndexAt(spans, start); ri >= 0 && spans[ri].Annotation.Code {
				continue
			}
			entry, ok := e.bibliography[key]
			if !ok {
				e.logger.Warn("citation key not found in bibliography, token left as-is",
					zap.String("key", key))
				continue
			}

			before, rest := richtext.SplitAt(spans, start)
			token, after := richtext.SplitAt(rest, end-start)
			marker := richtext.NewCitationMarker(key, richtext.Join(token))
			spans = append(append(before, marker), after...)
			changed = true

			found = append(found, Citation{
				Key:            key,
				FormattedEntry: bib.Bibliography(entry, e.style),
				Authors:        entry.Authors,
				Year:           entry.Year,
				SourceBlockIDs: []string{},
			})
		}
		if changed {
			loc.Apply(spans)
		}
		// Matches were processed right to left; report them in text order.
		for i := len(found) - 1; i >= 0; i-- {
			citations = append(citations, found[i])
		}
	}
	return citations
}

// runIndexAt returns the index of the span owning the byte at pos.
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
