package footnote

import (
	"context"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// ChildBlocks extracts definitions from the block's leading children:
// a child whose first rich-text location begins with a colon-suffixed
// marker pattern is consumed whole, and its entire remaining subtree
// becomes the footnote content.
type ChildBlocks struct {
	pat    *Pattern
	logger *zap.Logger
}

func (s *ChildBlocks) Name() string { return SourceNameChildBlocks }

// Extract consumes matching leading children, keeps the rest in their
// original relative order and isolates the block's own inline markers.
func (s *ChildBlocks) Extract(ctx context.Context, b *block.Block) []Footnote {
	_, total, _ := scanBlock(b, s.pat)
	if total == 0 {
		return nil
	}

	children := b.Children()
	limit := total
	if len(children) > limit {
		limit = len(children)
	}

	var footnotes []Footnote
	kept := make([]*block.Block, 0, len(children))
	for i, child := range children {
		if i >= limit {
			kept = append(kept, child)
			continue
		}
		key, headLen, ok := s.matchChild(child)
		if !ok {
			kept = append(kept, child)
			continue
		}
		s.stripHead(child, headLen)
		footnotes = append(footnotes, Footnote{
			Marker:         key,
			FullMarker:     s.pat.Full(key),
			Content:        Content{Type: ContentBlocks, Blocks: []*block.Block{child}},
			SourceLocation: SourceContent,
		})
	}
	b.SetChildren(kept)

	splitBlockMarkers(b, s.pat)
	return footnotes
}

// matchChild tests the child's own first rich-text location for a
// definition head anchored at line start.
func (s *ChildBlocks) matchChild(child *block.Block) (key string, headLen int, ok bool) {
	locs := block.Locations(child)
	if len(locs) == 0 {
		return "", 0, false
	}
	return s.pat.LeadingDefinition(richtext.Join(locs[0].Spans))
}

// stripHead removes the matched definition head from the child's first
// location, byte-exact, leaving the rest of the subtree untouched.
func (s *ChildBlocks) stripHead(child *block.Block, headLen int) {
	locs := block.Locations(child)
	if len(locs) == 0 {
		return
	}
	_, rest := richtext.SplitAt(locs[0].Spans, headLen)
	locs[0].Apply(rest)
}
