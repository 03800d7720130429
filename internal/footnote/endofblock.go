package footnote

import (
	"context"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// EndOfBlock extracts definitions from a trailing definitions section
// inside each location's own text: a blank-line-delimited run of
// colon-suffixed marker patterns at the end of the text.
type EndOfBlock struct {
	pat    *Pattern
	logger *zap.Logger
}

func (s *EndOfBlock) Name() string { return SourceNameEndOfBlock }

// Extract splits each location into main content and definitions,
// records one footnote per non-orphaned, non-empty definition, writes
// the cleaned main content back and isolates every remaining inline
// marker into a dedicated marker span.
func (s *EndOfBlock) Extract(ctx context.Context, b *block.Block) []Footnote {
	locs, total, keys := scanBlock(b, s.pat)
	if total == 0 {
		return nil
	}

	var footnotes []Footnote
	for _, lm := range locs {
		loc := lm.loc
		text := richtext.Join(loc.Spans)
		defs := s.pat.Definitions(text)
		if len(defs) == 0 {
			continue
		}

		main, defSpans := richtext.SplitAt(loc.Spans, defs[0].SectionStart)
		base := defs[0].SectionStart
		for _, d := range defs {
			content := richtext.ExtractRange(defSpans, d.ContentStart-base, d.ContentEnd-base)
			if len(content) == 0 {
				continue
			}
			if !keys[d.Key] {
				// Orphaned definition with no inline reference anywhere
				// in the block: dropped, not reported.
				continue
			}
			footnotes = append(footnotes, Footnote{
				Marker:         d.Key,
				FullMarker:     s.pat.Full(d.Key),
				Content:        Content{Type: ContentRichText, RichTexts: content},
				SourceLocation: locationSource(loc),
			})
		}
		loc.Apply(main)
	}

	splitBlockMarkers(b, s.pat)
	return footnotes
}
