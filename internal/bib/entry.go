// Package bib retrieves, parses, caches and merges externally hosted
// bibliography files, and renders parsed entries into styled citation
// strings.
package bib

// NoDate is the year sentinel for entries without a usable date.
const NoDate = "n.d."

// Entry is the durable, cached unit of bibliographic data, immutable
// once produced from a bibliography file.
type Entry struct {
	Key     string `json:"key"`
	Authors string `json:"authors"`
	Year    string `json:"year"`
	IEEE    string `json:"ieee_formatted"`
	APA     string `json:"apa_formatted"`
}

// Bibliography returns the full citation string for a style name:
// "apa" selects the APA-like rendering, anything else the numeric
// IEEE-like one.
func Bibliography(e Entry, style string) string {
	if style == "apa" {
		return e.APA
	}
	return e.IEEE
}

// Merge combines entry maps in order; later sources override earlier
// ones when keys collide.
func Merge(maps ...map[string]Entry) map[string]Entry {
	out := make(map[string]Entry)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
