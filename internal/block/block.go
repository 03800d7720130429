// Package block defines the tagged-union content block tree and the
// location index used to address rich text inside a block.
package block

import "github.com/notefoot/notefoot/internal/richtext"

// Type identifies the populated content variant of a block.
type Type string

const (
	TypeParagraph        Type = "paragraph"
	TypeHeading1         Type = "heading_1"
	TypeHeading2         Type = "heading_2"
	TypeHeading3         Type = "heading_3"
	TypeBulletedListItem Type = "bulleted_list_item"
	TypeNumberedListItem Type = "numbered_list_item"
	TypeToDo             Type = "to_do"
	TypeQuote            Type = "quote"
	TypeCallout          Type = "callout"
	TypeToggle           Type = "toggle"
	TypeCode             Type = "code"
	TypeTable            Type = "table"
	TypeImage            Type = "image"
	TypeVideo            Type = "video"
	TypeFile             Type = "file"
	TypeEmbed            Type = "embed"
	TypeBookmark         Type = "bookmark"
	TypeSyncedBlock      Type = "synced_block"
	TypeDivider          Type = "divider"
)

// Block is a tagged-union tree node with exactly one populated content
// variant. A block owns its children and its rich text outright;
// extraction mutates blocks in place and no block is referenced from
// two places.
type Block struct {
	ID   string `json:"id,omitempty"`
	Type Type   `json:"type"`

	Paragraph        *Paragraph   `json:"paragraph,omitempty"`
	Heading1         *Heading     `json:"heading_1,omitempty"`
	Heading2         *Heading     `json:"heading_2,omitempty"`
	Heading3         *Heading     `json:"heading_3,omitempty"`
	BulletedListItem *ListItem    `json:"bulleted_list_item,omitempty"`
	NumberedListItem *ListItem    `json:"numbered_list_item,omitempty"`
	ToDo             *ToDo        `json:"to_do,omitempty"`
	Quote            *Quote       `json:"quote,omitempty"`
	Callout          *Callout     `json:"callout,omitempty"`
	Toggle           *Toggle      `json:"toggle,omitempty"`
	Code             *Code        `json:"code,omitempty"`
	Table            *Table       `json:"table,omitempty"`
	Image            *Media       `json:"image,omitempty"`
	Video            *Media       `json:"video,omitempty"`
	File             *Media       `json:"file,omitempty"`
	Embed            *Embed       `json:"embed,omitempty"`
	Bookmark         *Bookmark    `json:"bookmark,omitempty"`
	SyncedBlock      *SyncedBlock `json:"synced_block,omitempty"`
	Divider          *Divider     `json:"divider,omitempty"`
}

// Paragraph is a plain text block.
type Paragraph struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Color     string              `json:"color,omitempty"`
	Children  []*Block            `json:"children,omitempty"`
}

// Heading covers heading_1 through heading_3.
type Heading struct {
	RichTexts    []richtext.RichText `json:"rich_texts"`
	Color        string              `json:"color,omitempty"`
	IsToggleable bool                `json:"is_toggleable,omitempty"`
	Children     []*Block            `json:"children,omitempty"`
}

// ListItem covers bulleted and numbered list items.
type ListItem struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Color     string              `json:"color,omitempty"`
	Children  []*Block            `json:"children,omitempty"`
}

// ToDo is a checkbox list item.
type ToDo struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Checked   bool                `json:"checked,omitempty"`
	Children  []*Block            `json:"children,omitempty"`
}

// Quote is a block quote.
type Quote struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Color     string              `json:"color,omitempty"`
	Children  []*Block            `json:"children,omitempty"`
}

// Callout is a highlighted note box with an optional icon.
type Callout struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Icon      string              `json:"icon,omitempty"`
	Color     string              `json:"color,omitempty"`
	Children  []*Block            `json:"children,omitempty"`
}

// Toggle is a collapsible container.
type Toggle struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Children  []*Block            `json:"children,omitempty"`
}

// Code is a code block. Its body is code by definition and is never
// scanned for markers; only the caption is addressable.
type Code struct {
	RichTexts []richtext.RichText `json:"rich_texts"`
	Caption   []richtext.RichText `json:"caption,omitempty"`
	Language  string              `json:"language,omitempty"`
}

// Table holds rows of rich-text cells.
type Table struct {
	HasColumnHeader bool       `json:"has_column_header,omitempty"`
	HasRowHeader    bool       `json:"has_row_header,omitempty"`
	Rows            []TableRow `json:"rows"`
}

// TableRow is one row of cells, each cell an independent span sequence.
type TableRow struct {
	Cells [][]richtext.RichText `json:"cells"`
}

// Media covers image, video and file embeds.
type Media struct {
	URL     string              `json:"url,omitempty"`
	Caption []richtext.RichText `json:"caption,omitempty"`
}

// Embed is an external content embed.
type Embed struct {
	URL     string              `json:"url,omitempty"`
	Caption []richtext.RichText `json:"caption,omitempty"`
}

// Bookmark is a link preview card.
type Bookmark struct {
	URL     string              `json:"url,omitempty"`
	Caption []richtext.RichText `json:"caption,omitempty"`
}

// SyncedBlock mirrors content from another block.
type SyncedBlock struct {
	SyncedFrom string   `json:"synced_from,omitempty"`
	Children   []*Block `json:"children,omitempty"`
}

// Divider has no content.
type Divider struct{}

// Children returns the child list of the block's populated variant.
// Variants that cannot hold children return nil.
func (b *Block) Children() []*Block {
	switch b.Type {
	case TypeParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.Children
		}
	case TypeHeading1:
		if b.Heading1 != nil {
			return b.Heading1.Children
		}
	case TypeHeading2:
		if b.Heading2 != nil {
			return b.Heading2.Children
		}
	case TypeHeading3:
		if b.Heading3 != nil {
			return b.Heading3.Children
		}
	case TypeBulletedListItem:
		if b.BulletedListItem != nil {
			return b.BulletedListItem.Children
		}
	case TypeNumberedListItem:
		if b.NumberedListItem != nil {
			return b.NumberedListItem.Children
		}
	case TypeToDo:
		if b.ToDo != nil {
			return b.ToDo.Children
		}
	case TypeQuote:
		if b.Quote != nil {
			return b.Quote.Children
		}
	case TypeCallout:
		if b.Callout != nil {
			return b.Callout.Children
		}
	case TypeToggle:
		if b.Toggle != nil {
			return b.Toggle.Children
		}
	case TypeSyncedBlock:
		if b.SyncedBlock != nil {
			return b.SyncedBlock.Children
		}
	}
	return nil
}

// SetChildren replaces the child list of the block's populated variant.
// A no-op for variants that cannot hold children.
func (b *Block) SetChildren(children []*Block) {
	switch b.Type {
	case TypeParagraph:
		if b.Paragraph != nil {
			b.Paragraph.Children = children
		}
	case TypeHeading1:
		if b.Heading1 != nil {
			b.Heading1.Children = children
		}
	case TypeHeading2:
		if b.Heading2 != nil {
			b.Heading2.Children = children
		}
	case TypeHeading3:
		if b.Heading3 != nil {
			b.Heading3.Children = children
		}
	case TypeBulletedListItem:
		if b.BulletedListItem != nil {
			b.BulletedListItem.Children = children
		}
	case TypeNumberedListItem:
		if b.NumberedListItem != nil {
			b.NumberedListItem.Children = children
		}
	case TypeToDo:
		if b.ToDo != nil {
			b.ToDo.Children = children
		}
	case TypeQuote:
		if b.Quote != nil {
			b.Quote.Children = children
		}
	case TypeCallout:
		if b.Callout != nil {
			b.Callout.Children = children
		}
	case TypeToggle:
		if b.Toggle != nil {
			b.Toggle.Children = children
		}
	case TypeSyncedBlock:
		if b.SyncedBlock != nil {
			b.SyncedBlock.Children = children
		}
	}
}

// NewParagraph creates a paragraph block from plain text.
func NewParagraph(text string) *Block {
	return &Block{
		Type: TypeParagraph,
		Paragraph: &Paragraph{
			RichTexts: []richtext.RichText{richtext.NewText(text)},
		},
	}
}
