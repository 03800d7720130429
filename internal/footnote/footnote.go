// Package footnote locates footnote markers inside block rich text,
// extracts the matching definition content and rewrites the block so
// inline markers become addressable reference spans.
//
// Definition content can live in three places, selected by
// configuration: at the end of the block's own text, at the start of
// its child blocks, or in out-of-band comment records. Exactly one
// source strategy is active per run.
package footnote

import (
	"context"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// SourceLocation records where a footnote's definition was found.
type SourceLocation string

const (
	SourceContent SourceLocation = "content"
	SourceCaption SourceLocation = "caption"
	SourceTable   SourceLocation = "table"
	SourceComment SourceLocation = "comment"
)

// ContentType tags the variant of a footnote's content.
type ContentType string

const (
	ContentRichText ContentType = "rich_text"
	ContentBlocks   ContentType = "blocks"
	ContentComment  ContentType = "comment"
)

// Content is the tagged definition payload of a footnote.
type Content struct {
	Type      ContentType         `json:"type"`
	RichTexts []richtext.RichText `json:"rich_texts,omitempty"`
	Blocks    []*block.Block      `json:"blocks,omitempty"`
	Comment   *Comment            `json:"comment,omitempty"`
}

// Footnote is one extracted definition, keyed by its bare marker.
type Footnote struct {
	Marker         string         `json:"marker"`
	FullMarker     string         `json:"full_marker"`
	Content        Content        `json:"content"`
	SourceLocation SourceLocation `json:"source_location"`
}

// Source is one of the three mutually exclusive extraction strategies.
// Extract mutates the block in place and returns the footnotes it
// produced; every failure mode degrades to zero footnotes rather than
// an error, so processing of the remaining blocks never stops.
type Source interface {
	Name() string
	Extract(ctx context.Context, b *block.Block) []Footnote
}

// Source names recognized by configuration.
const (
	SourceNameEndOfBlock  = "end-of-block"
	SourceNameChildBlocks = "start-of-child-blocks"
	SourceNameComments    = "block-comments"
)

// NewSource builds the strategy for a configured source name. The
// comments provider is only consulted by the block-comments strategy
// and may be nil for the other two.
func NewSource(name, prefix string, provider CommentsProvider, downloader Downloader, optimizeImages bool, logger *zap.Logger) Source {
	pat := NewPattern(prefix)
	switch name {
	case SourceNameEndOfBlock:
		return &EndOfBlock{pat: pat, logger: logger}
	case SourceNameChildBlocks:
		return &ChildBlocks{pat: pat, logger: logger}
	case SourceNameComments:
		return &BlockComments{
			pat:            pat,
			provider:       provider,
			downloader:     downloader,
			optimizeImages: optimizeImages,
			logger:         logger,
		}
	default:
		return nil
	}
}

// locationSource maps a location's structural slot to the footnote
// source-location tag.
func locationSource(loc *block.Location) SourceLocation {
	switch loc.Kind() {
	case block.FieldCaption:
		return SourceCaption
	case block.FieldTableCell:
		return SourceTable
	default:
		return SourceContent
	}
}
