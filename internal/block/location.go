package block

import (
	"fmt"

	"github.com/notefoot/notefoot/internal/richtext"
)

// Field names the structural slot a location addresses within its
// block variant.
type Field int

const (
	// FieldContent is the variant's primary rich-text slot.
	FieldContent Field = iota
	// FieldCaption is a media or code caption slot.
	FieldCaption
	// FieldTableCell is one table cell, addressed by row and column.
	FieldTableCell
)

// Location identifies one addressable rich-text sequence inside a
// block by a stable property path. Apply writes a replacement sequence
// back into the owning block; the dispatch is an explicit match over
// the variant tag so every mutation site is auditable. Locations are
// discovered per block and never cached across blocks.
type Location struct {
	Path  string
	Spans []richtext.RichText

	block    *Block
	field    Field
	row, col int
}

// Kind returns the structural slot this location addresses.
func (l *Location) Kind() Field {
	return l.field
}

// Apply replaces the addressed sequence in the owning block.
func (l *Location) Apply(spans []richtext.RichText) {
	l.Spans = spans
	b := l.block
	switch l.field {
	case FieldTableCell:
		if b.Table != nil && l.row < len(b.Table.Rows) && l.col < len(b.Table.Rows[l.row].Cells) {
			b.Table.Rows[l.row].Cells[l.col] = spans
		}
	case FieldCaption:
		switch b.Type {
		case TypeCode:
			b.Code.Caption = spans
		case TypeImage:
			b.Image.Caption = spans
		case TypeVideo:
			b.Video.Caption = spans
		case TypeFile:
			b.File.Caption = spans
		case TypeEmbed:
			b.Embed.Caption = spans
		case TypeBookmark:
			b.Bookmark.Caption = spans
		}
	case FieldContent:
		switch b.Type {
		case TypeParagraph:
			b.Paragraph.RichTexts = spans
		case TypeHeading1:
			b.Heading1.RichTexts = spans
		case TypeHeading2:
			b.Heading2.RichTexts = spans
		case TypeHeading3:
			b.Heading3.RichTexts = spans
		case TypeBulletedListItem:
			b.BulletedListItem.RichTexts = spans
		case TypeNumberedListItem:
			b.NumberedListItem.RichTexts = spans
		case TypeToDo:
			b.ToDo.RichTexts = spans
		case TypeQuote:
			b.Quote.RichTexts = spans
		case TypeCallout:
			b.Callout.RichTexts = spans
		case TypeToggle:
			b.Toggle.RichTexts = spans
		}
	}
}

// Locations enumerates every non-empty rich-text-bearing field of a
// single block. Table cells get one location each, keyed by an explicit
// row/column path. The index does not recurse into child blocks; that
// is the caller's responsibility.
func Locations(b *Block) []*Location {
	var locs []*Location
	add := func(path string, field Field, row, col int, spans []richtext.RichText) {
		if len(spans) == 0 {
			return
		}
		locs = append(locs, &Location{
			Path:  path,
			Spans: spans,
			block: b,
			field: field,
			row:   row,
			col:   col,
		})
	}

	switch b.Type {
	case TypeParagraph:
		if b.Paragraph != nil {
			add("Paragraph.RichTexts", FieldContent, 0, 0, b.Paragraph.RichTexts)
		}
	case TypeHeading1:
		if b.Heading1 != nil {
			add("Heading1.RichTexts", FieldContent, 0, 0, b.Heading1.RichTexts)
		}
	case TypeHeading2:
		if b.Heading2 != nil {
			add("Heading2.RichTexts", FieldContent, 0, 0, b.Heading2.RichTexts)
		}
	case TypeHeading3:
		if b.Heading3 != nil {
			add("Heading3.RichTexts", FieldContent, 0, 0, b.Heading3.RichTexts)
		}
	case TypeBulletedListItem:
		if b.BulletedListItem != nil {
			add("BulletedListItem.RichTexts", FieldContent, 0, 0, b.BulletedListItem.RichTexts)
		}
	case TypeNumberedListItem:
		if b.NumberedListItem != nil {
			add("NumberedListItem.RichTexts", FieldContent, 0, 0, b.NumberedListItem.RichTexts)
		}
	case TypeToDo:
		if b.ToDo != nil {
			add("ToDo.RichTexts", FieldContent, 0, 0, b.ToDo.RichTexts)
		}
	case TypeQuote:
		if b.Quote != nil {
			add("Quote.RichTexts", FieldContent, 0, 0, b.Quote.RichTexts)
		}
	case TypeCallout:
		if b.Callout != nil {
			add("Callout.RichTexts", FieldContent, 0, 0, b.Callout.RichTexts)
		}
	case TypeToggle:
		if b.Toggle != nil {
			add("Toggle.RichTexts", FieldContent, 0, 0, b.Toggle.RichTexts)
		}
	case TypeCode:
		if b.Code != nil {
			add("Code.Caption", FieldCaption, 0, 0, b.Code.Caption)
		}
	case TypeImage:
		if b.Image != nil {
			add("Image.Caption", FieldCaption, 0, 0, b.Image.Caption)
		}
	case TypeVideo:
		if b.Video != nil {
			add("Video.Caption", FieldCaption, 0, 0, b.Video.Caption)
		}
	case TypeFile:
		if b.File != nil {
			add("File.Caption", FieldCaption, 0, 0, b.File.Caption)
		}
	case TypeEmbed:
		if b.Embed != nil {
			add("Embed.Caption", FieldCaption, 0, 0, b.Embed.Caption)
		}
	case TypeBookmark:
		if b.Bookmark != nil {
			add("Bookmark.Caption", FieldCaption, 0, 0, b.Bookmark.Caption)
		}
	case TypeTable:
		if b.Table != nil {
			for i, row := range b.Table.Rows {
				for j, cell := range row.Cells {
					add(fmt.Sprintf("Table.Rows[%d].Cells[%d]", i, j), FieldTableCell, i, j, cell)
				}
			}
		}
	}
	return locs
}
