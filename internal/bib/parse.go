package bib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nickng/bibtex"
)

// ParseEntries parses one bibliography file into keyed entries. The
// format is sniffed from the content: a JSON array is treated as
// CSL-JSON, anything else as BibTeX.
func ParseEntries(content []byte) (map[string]Entry, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return map[string]Entry{}, nil
	}
	if trimmed[0] == '[' {
		return parseCSL(trimmed)
	}
	return parseBibTeX(trimmed)
}

// work is the format-independent intermediate record both parsers
// produce before rendering.
type work struct {
	key       string
	authors   string
	year      string
	title     string
	container string
}

// toEntry renders the two styled citation strings. Each renderer falls
// back to a synthesized "Authors (Year). Title." string when it cannot
// produce its style.
func (w work) toEntry() Entry {
	e := Entry{Key: w.key, Authors: w.authors, Year: w.year}
	ieee, err := w.renderIEEE()
	if err != nil {
		ieee = w.fallback()
	}
	apa, err := w.renderAPA()
	if err != nil {
		apa = w.fallback()
	}
	e.IEEE = ieee
	e.APA = apa
	return e
}

func (w work) renderIEEE() (string, error) {
	if w.title == "" {
		return "", fmt.Errorf("entry %s: no title", w.key)
	}
	parts := []string{fmt.Sprintf("%s, \"%s,\"", w.authors, w.title)}
	if w.container != "" {
		parts = append(parts, w.container+",")
	}
	parts = append(parts, w.year+".")
	return strings.Join(parts, " "), nil
}

func (w work) renderAPA() (string, error) {
	if w.title == "" {
		return "", fmt.Errorf("entry %s: no title", w.key)
	}
	s := fmt.Sprintf("%s (%s). %s.", w.authors, w.year, w.title)
	if w.container != "" {
		s += " " + w.container + "."
	}
	return s, nil
}

func (w work) fallback() string {
	return fmt.Sprintf("%s (%s). %s.", w.authors, w.year, w.title)
}

// CSL-JSON shapes, limited to the fields the renderers consume.
type (
	cslItem struct {
		ID             string    `json:"id"`
		Title          string    `json:"title"`
		Author         []cslName `json:"author"`
		Issued         *cslDate  `json:"issued"`
		Year           string    `json:"year"`
		ContainerTitle string    `json:"container-title"`
	}

	cslName struct {
		Family  string `json:"family"`
		Given   string `json:"given"`
		Literal string `json:"literal"`
	}

	cslDate struct {
		DateParts [][]any `json:"date-parts"`
		Literal   string  `json:"literal"`
	}
)

func parseCSL(content []byte) (map[string]Entry, error) {
	var items []cslItem
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("parsing CSL-JSON: %w", err)
	}
	out := make(map[string]Entry, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		names := make([]string, 0, len(it.Author))
		for _, a := range it.Author {
			if a.Family != "" {
				names = append(names, a.Family)
			} else if a.Literal != "" {
				names = append(names, a.Literal)
			}
		}
		w := work{
			key:       it.ID,
			authors:   FormatAuthors(names),
			year:      cslYear(it),
			title:     it.Title,
			container: it.ContainerTitle,
		}
		out[w.key] = w.toEntry()
	}
	return out, nil
}

// cslYear resolves the year: structured issued date first, then the
// issued literal, then a plain year field, then the no-date sentinel.
func cslYear(it cslItem) string {
	if it.Issued != nil {
		if len(it.Issued.DateParts) > 0 && len(it.Issued.DateParts[0]) > 0 {
			switch y := it.Issued.DateParts[0][0].(type) {
			case float64:
				return fmt.Sprintf("%d", int(y))
			case string:
				if y != "" {
					return y
				}
			}
		}
		if it.Issued.Literal != "" {
			return it.Issued.Literal
		}
	}
	if it.Year != "" {
		return it.Year
	}
	return NoDate
}

func parseBibTeX(content []byte) (map[string]Entry, error) {
	parsed, err := bibtex.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing BibTeX: %w", err)
	}
	out := make(map[string]Entry, len(parsed.Entries))
	for _, be := range parsed.Entries {
		if be.CiteName == "" {
			continue
		}
		w := work{
			key:       be.CiteName,
			authors:   FormatAuthors(bibAuthorFamilies(field(be.Fields, "author"))),
			year:      bibYear(field(be.Fields, "year")),
			title:     field(be.Fields, "title"),
			container: bibContainer(be.Fields),
		}
		out[w.key] = w.toEntry()
	}
	return out, nil
}

func field(fields map[string]bibtex.BibString, name string) string {
	if v, ok := fields[name]; ok && v != nil {
		return strings.TrimSpace(v.String())
	}
	return ""
}

func bibContainer(fields map[string]bibtex.BibString) string {
	for _, name := range []string{"journal", "booktitle", "publisher"} {
		if v := field(fields, name); v != "" {
			return v
		}
	}
	return ""
}

func bibYear(year string) string {
	if year == "" {
		return NoDate
	}
	return year
}

// bibAuthorFamilies extracts family names from a BibTeX author field.
// "Smith, John and Doe, Jane" and "John Smith and Jane Doe" both yield
// [Smith Doe].
func bibAuthorFamilies(authors string) []string {
	if authors == "" {
		return nil
	}
	var out []string
	for _, name := range strings.Split(authors, " and ") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if comma := strings.Index(name, ","); comma >= 0 {
			out = append(out, strings.TrimSpace(name[:comma]))
			continue
		}
		words := strings.Fields(name)
		out = append(out, words[len(words)-1])
	}
	return out
}

// FormatAuthors renders a display string from family (or literal)
// names: one name as-is, two as "A & B", three to eight as
// "A, B, … & Last", more than eight as the first eight followed by
// "et al.".
func FormatAuthors(names []string) string {
	switch n := len(names); {
	case n == 0:
		return ""
	case n == 1:
		return names[0]
	case n == 2:
		return names[0] + " & " + names[1]
	case n <= 8:
		return strings.Join(names[:n-1], ", ") + " & " + names[n-1]
	default:
		return strings.Join(names[:8], ", ") + " et al."
	}
}
