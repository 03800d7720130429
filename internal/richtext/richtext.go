// Package richtext defines the annotated text span model.
// A span is one contiguous run of text sharing identical formatting;
// sequences of spans are the unit all extraction code operates on.
package richtext

// Annotation contains the formatting flags of a span.
// All fields are always present; Color is a named color token.
type Annotation struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// Link is a plain URL attached to a text span.
type Link struct {
	URL string `json:"url"`
}

// TextContent is the editable text payload of a span.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Equation is an inline math expression payload.
type Equation struct {
	Expression string `json:"expression"`
}

// MentionType identifies the mention payload variant.
type MentionType string

const (
	MentionTypePage        MentionType = "page"
	MentionTypeDate        MentionType = "date"
	MentionTypeLinkPreview MentionType = "link_preview"
	MentionTypeCustomEmoji MentionType = "custom_emoji"
)

// PageMention references another page by ID.
type PageMention struct {
	ID string `json:"id"`
}

// DateMention is a date or date range mention.
type DateMention struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// LinkPreviewMention carries link-preview metadata.
type LinkPreviewMention struct {
	URL string `json:"url"`
}

// CustomEmojiMention is a workspace-defined emoji.
type CustomEmojiMention struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Mention is a tagged union over the supported mention kinds.
type Mention struct {
	Type        MentionType         `json:"type"`
	Page        *PageMention        `json:"page,omitempty"`
	Date        *DateMention        `json:"date,omitempty"`
	LinkPreview *LinkPreviewMention `json:"link_preview,omitempty"`
	CustomEmoji *CustomEmojiMention `json:"custom_emoji,omitempty"`
}

// RichText is a single annotated span. Concatenating PlainText over an
// ordered sequence of spans always reproduces the text that was scanned
// for markers; no operation in this package drops or duplicates characters.
type RichText struct {
	PlainText  string       `json:"plain_text"`
	Href       string       `json:"href,omitempty"`
	Text       *TextContent `json:"text,omitempty"`
	Annotation Annotation   `json:"annotation"`
	Equation   *Equation    `json:"equation,omitempty"`
	Mention    *Mention     `json:"mention,omitempty"`

	// Set only on spans produced by marker substitution.
	IsFootnoteMarker bool   `json:"is_footnote_marker,omitempty"`
	FootnoteRef      string `json:"footnote_ref,omitempty"`
	IsCitationMarker bool   `json:"is_citation_marker,omitempty"`
	CitationRef      string `json:"citation_ref,omitempty"`
}

// NewText creates a plain unannotated text span.
func NewText(s string) RichText {
	return RichText{
		PlainText: s,
		Text:      &TextContent{Content: s},
	}
}

// NewFootnoteMarker creates a span standing in for an inline footnote
// reference. The span displays the rendered marker text verbatim.
func NewFootnoteMarker(key, display string) RichText {
	rt := NewText(display)
	rt.IsFootnoteMarker = true
	rt.FootnoteRef = key
	return rt
}

// NewCitationMarker creates a span standing in for an in-text citation
// token, displaying the original token text verbatim.
func NewCitationMarker(key, display string) RichText {
	rt := NewText(display)
	rt.IsCitationMarker = true
	rt.CitationRef = key
	return rt
}

// Clone returns a deep copy of the span. Mutating the copy never
// affects the original.
func (rt RichText) Clone() RichText {
	out := rt
	if rt.Text != nil {
		text := *rt.Text
		if rt.Text.Link != nil {
			link := *rt.Text.Link
			text.Link = &link
		}
		out.Text = &text
	}
	if rt.Equation != nil {
		eq := *rt.Equation
		out.Equation = &eq
	}
	if rt.Mention != nil {
		m := *rt.Mention
		if rt.Mention.Page != nil {
			p := *rt.Mention.Page
			m.Page = &p
		}
		if rt.Mention.Date != nil {
			d := *rt.Mention.Date
			if rt.Mention.Date.End != nil {
				end := *rt.Mention.Date.End
				d.End = &end
			}
			m.Date = &d
		}
		if rt.Mention.LinkPreview != nil {
			lp := *rt.Mention.LinkPreview
			m.LinkPreview = &lp
		}
		if rt.Mention.CustomEmoji != nil {
			ce := *rt.Mention.CustomEmoji
			m.CustomEmoji = &ce
		}
		out.Mention = &m
	}
	return out
}

// IsEmpty returns true if the span carries no text.
func (rt RichText) IsEmpty() bool {
	return rt.PlainText == ""
}

// CloneAll deep-copies a span sequence.
func CloneAll(spans []RichText) []RichText {
	out := make([]RichText, len(spans))
	for i, s := range spans {
		out[i] = s.Clone()
	}
	return out
}
