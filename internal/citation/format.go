package citation

import (
	"sort"

	"github.com/notefoot/notefoot/internal/bib"
)

// Bibliography styles recognized by configuration.
const (
	StyleAPA  = "apa"
	StyleIEEE = "simplified-ieee"
)

// InTextPlaceholder stands in for a numeric in-text citation until the
// page-level pass assigns first-appearance indices.
const InTextPlaceholder = "[?]"

// Formatted is the style-specific rendering of one resolved entry.
type Formatted struct {
	InText       string `json:"in_text"`
	Bibliography string `json:"bibliography"`
	Authors      string `json:"authors"`
	Year         string `json:"year"`
}

// FormatCitation renders a resolved entry for the given style. The APA
// in-text form is "Authors, Year"; the numeric style's in-text form is
// a placeholder pending index assignment.
func FormatCitation(entry bib.Entry, style string) Formatted {
	f := Formatted{
		Bibliography: bib.Bibliography(entry, style),
		Authors:      entry.Authors,
		Year:         entry.Year,
	}
	if style == StyleAPA {
		f.InText = entry.Authors + ", " + entry.Year
	} else {
		f.InText = InTextPlaceholder
	}
	return f
}

// PrepareBibliography orders the final reference list: ascending
// first-appearance Index for the numeric style, lexicographic Authors
// for APA. The sort is stable, so ties keep their original relative
// order.
func PrepareBibliography(citations []Citation, style string) []Citation {
	out := make([]Citation, len(citations))
	copy(out, citations)
	if style == StyleAPA {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Authors < out[j].Authors
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Index < out[j].Index
		})
	}
	return out
}
