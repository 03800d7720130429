package footnote

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/richtext"
)

// ErrPermissionDenied is returned by a comments provider when the
// integration lacks read-comments capability. It degrades to zero
// footnotes for the block instead of failing the build.
var ErrPermissionDenied = errors.New("comments provider: permission denied")

// CommentsProvider lists the comment records attached to a block. It
// is an external collaborator; this package only defines the contract.
type CommentsProvider interface {
	List(ctx context.Context, blockID string) ([]WireComment, error)
}

// Downloader materializes attachment files referenced by comment
// footnotes. Implementations are external collaborators.
type Downloader interface {
	Download(ctx context.Context, url string, isImage bool) error
}

// Wire schema of the comments provider. Decoded into the internal
// richtext shape by decodeRichText; unknown mention kinds are dropped
// with a warning, never a crash.
type (
	WireComment struct {
		RichText    []WireRichText   `json:"rich_text"`
		Attachments []WireAttachment `json:"attachments,omitempty"`
	}

	WireRichText struct {
		Type        string          `json:"type"`
		PlainText   string          `json:"plain_text"`
		Href        string          `json:"href,omitempty"`
		Annotations WireAnnotations `json:"annotations"`
		Text        *WireText       `json:"text,omitempty"`
		Equation    *WireEquation   `json:"equation,omitempty"`
		Mention     *WireMention    `json:"mention,omitempty"`
	}

	WireAnnotations struct {
		Bold          bool   `json:"bold"`
		Italic        bool   `json:"italic"`
		Strikethrough bool   `json:"strikethrough"`
		Underline     bool   `json:"underline"`
		Code          bool   `json:"code"`
		Color         string `json:"color"`
	}

	WireText struct {
		Content string `json:"content"`
		Link    *struct {
			URL string `json:"url"`
		} `json:"link,omitempty"`
	}

	WireEquation struct {
		Expression string `json:"expression"`
	}

	WireMention struct {
		Type string `json:"type"`
		Page *struct {
			ID string `json:"id"`
		} `json:"page,omitempty"`
		Date *struct {
			Start string  `json:"start"`
			End   *string `json:"end,omitempty"`
		} `json:"date,omitempty"`
		LinkPreview *struct {
			URL string `json:"url"`
		} `json:"link_preview,omitempty"`
		CustomEmoji *struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"custom_emoji,omitempty"`
	}

	WireAttachment struct {
		Category string `json:"category"`
		File     struct {
			URL        string    `json:"url"`
			ExpiryTime time.Time `json:"expiry_time"`
		} `json:"file"`
	}
)

// Comment is a decoded comment footnote payload.
type Comment struct {
	RichTexts   []richtext.RichText `json:"rich_texts"`
	Attachments []Attachment        `json:"attachments,omitempty"`
}

// Attachment is one comment file attachment. OptimizedURL is set only
// for image categories whose extension is convertible.
type Attachment struct {
	Category     string     `json:"category"`
	URL          string     `json:"url"`
	OptimizedURL string     `json:"optimized_url,omitempty"`
	Filename     string     `json:"filename"`
	ExpiryTime   *time.Time `json:"expiry_time,omitempty"`
}

// IsImage reports whether the attachment belongs to an image category.
func (a Attachment) IsImage() bool {
	return a.Category == "image" || a.Category == "gif"
}

// BlockComments extracts definitions from out-of-band comment records.
// The provider is only called when the block actually contains inline
// markers; blocks without markers never cost a network round trip.
type BlockComments struct {
	pat            *Pattern
	provider       CommentsProvider
	downloader     Downloader
	optimizeImages bool
	logger         *zap.Logger
}

func (s *BlockComments) Name() string { return SourceNameComments }

// Extract lists the block's comments, keeps the ones whose first text
// run starts with a definition head, and isolates the block's inline
// markers. Provider failures degrade to zero footnotes for the block.
func (s *BlockComments) Extract(ctx context.Context, b *block.Block) []Footnote {
	_, total, _ := scanBlock(b, s.pat)
	if total == 0 {
		return nil
	}
	if s.provider == nil {
		s.logger.Warn("block-comments source active but no comments provider configured",
			zap.String("block_id", b.ID))
		return nil
	}

	comments, err := s.provider.List(ctx, b.ID)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			s.logger.Warn("comments unreadable for block; grant the integration read-comments capability",
				zap.String("block_id", b.ID), zap.Error(err))
		} else {
			s.logger.Error("listing comments failed; block keeps its markers unexpanded",
				zap.String("block_id", b.ID), zap.Error(err))
		}
		return nil
	}

	var footnotes []Footnote
	for _, c := range comments {
		if len(c.RichText) == 0 {
			continue
		}
		key, headLen, ok := s.pat.LeadingDefinition(c.RichText[0].PlainText)
		if !ok {
			continue
		}
		spans := s.decodeRichTexts(c.RichText)
		content := richtext.ExtractRange(spans, headLen, len(richtext.Join(spans)))
		footnotes = append(footnotes, Footnote{
			Marker:     key,
			FullMarker: s.pat.Full(key),
			Content: Content{
				Type: ContentComment,
				Comment: &Comment{
					RichTexts:   content,
					Attachments: s.decodeAttachments(ctx, c.Attachments),
				},
			},
			SourceLocation: SourceComment,
		})
	}

	splitBlockMarkers(b, s.pat)
	return footnotes
}

// decodeRichTexts converts wire runs into internal spans, skipping
// runs that cannot be represented.
func (s *BlockComments) decodeRichTexts(wire []WireRichText) []richtext.RichText {
	out := make([]richtext.RichText, 0, len(wire))
	for _, w := range wire {
		rt, ok := decodeRichText(w, s.logger)
		if !ok {
			continue
		}
		out = append(out, rt)
	}
	return out
}

// decodeRichText converts one wire run. It is total over the known
// sub-kinds; unknown mention kinds are dropped with a warning.
func decodeRichText(w WireRichText, logger *zap.Logger) (richtext.RichText, bool) {
	rt := richtext.RichText{
		PlainText: w.PlainText,
		Href:      w.Href,
		Annotation: richtext.Annotation{
			Bold:          w.Annotations.Bold,
			Italic:        w.Annotations.Italic,
			Strikethrough: w.Annotations.Strikethrough,
			Underline:     w.Annotations.Underline,
			Code:          w.Annotations.Code,
			Color:         w.Annotations.Color,
		},
	}

	switch w.Type {
	case "text":
		text := &richtext.TextContent{Content: w.PlainText}
		if w.Text != nil {
			text.Content = w.Text.Content
			if w.Text.Link != nil {
				text.Link = &richtext.Link{URL: w.Text.Link.URL}
			}
		}
		rt.Text = text
	case "equation":
		if w.Equation != nil {
			rt.Equation = &richtext.Equation{Expression: w.Equation.Expression}
		}
	case "mention":
		if w.Mention == nil {
			return richtext.RichText{}, false
		}
		m, ok := decodeMention(*w.Mention, logger)
		if !ok {
			return richtext.RichText{}, false
		}
		rt.Mention = m
		if m.Type == richtext.MentionTypeDate {
			rt.PlainText = dateMentionText(*m.Date)
		}
	default:
		logger.Warn("unsupported comment rich text kind dropped", zap.String("kind", w.Type))
		return richtext.RichText{}, false
	}
	return rt, true
}

func decodeMention(w WireMention, logger *zap.Logger) (*richtext.Mention, bool) {
	switch w.Type {
	case "page":
		if w.Page == nil {
			return nil, false
		}
		return &richtext.Mention{
			Type: richtext.MentionTypePage,
			Page: &richtext.PageMention{ID: w.Page.ID},
		}, true
	case "date":
		if w.Date == nil {
			return nil, false
		}
		return &richtext.Mention{
			Type: richtext.MentionTypeDate,
			Date: &richtext.DateMention{Start: w.Date.Start, End: w.Date.End},
		}, true
	case "link_preview":
		if w.LinkPreview == nil {
			return nil, false
		}
		return &richtext.Mention{
			Type:        richtext.MentionTypeLinkPreview,
			LinkPreview: &richtext.LinkPreviewMention{URL: w.LinkPreview.URL},
		}, true
	case "custom_emoji":
		if w.CustomEmoji == nil {
			return nil, false
		}
		return &richtext.Mention{
			Type:        richtext.MentionTypeCustomEmoji,
			CustomEmoji: &richtext.CustomEmojiMention{Name: w.CustomEmoji.Name, URL: w.CustomEmoji.URL},
		}, true
	default:
		logger.Warn("unsupported mention kind dropped", zap.String("kind", w.Type))
		return nil, false
	}
}

// dateMentionText renders a date mention as a single ISO string, or an
// "X to Y" range when an end date is present.
func dateMentionText(d richtext.DateMention) string {
	if d.End != nil && *d.End != "" {
		return d.Start + " to " + *d.End
	}
	return d.Start
}

// decodeAttachments converts wire attachments and asks the downloader
// to materialize each file. Download failures are logged and skipped.
func (s *BlockComments) decodeAttachments(ctx context.Context, wire []WireAttachment) []Attachment {
	if len(wire) == 0 {
		return nil
	}
	out := make([]Attachment, 0, len(wire))
	for _, w := range wire {
		expiry := w.File.ExpiryTime
		a := Attachment{
			Category: w.Category,
			URL:      w.File.URL,
			Filename: attachmentFilename(w.File.URL),
		}
		if !expiry.IsZero() {
			a.ExpiryTime = &expiry
		}
		if a.IsImage() && s.optimizeImages {
			a.OptimizedURL = optimizedName(a.Filename)
		}
		if s.downloader != nil {
			if err := s.downloader.Download(ctx, a.URL, a.IsImage()); err != nil {
				s.logger.Warn("attachment download failed", zap.String("url", a.URL), zap.Error(err))
			}
		}
		out = append(out, a)
	}
	return out
}

// attachmentFilename derives a local filename from the attachment URL
// path, ignoring the signed query string. A URL that does not parse is
// used as-is.
func attachmentFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	return path.Base(u.Path)
}

// convertibleExts are the source extensions the image optimizer can
// transcode to webp.
var convertibleExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".heic": true,
	".bmp":  true,
}

// optimizedName swaps a convertible image extension for .webp; other
// extensions are kept unchanged.
func optimizedName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !convertibleExts[ext] {
		return filename
	}
	return strings.TrimSuffix(filename, path.Ext(filename)) + ".webp"
}
