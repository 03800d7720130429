package richtext

import "strings"

// Join concatenates the plain text of a span sequence. The result is the
// sole string the marker and citation pattern matchers operate on; all
// positions handed back to SplitAt and ExtractRange are byte offsets
// into this string.
func Join(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.PlainText)
	}
	return b.String()
}

// SplitAt partitions a span sequence at the given byte offset of the
// joined text. Spans lying entirely before the cut go to before, spans
// entirely after go to after; a span straddling the cut is split into
// two spans carrying the parent's annotations with truncated text.
// Zero-length halves are dropped, never emitted as empty spans.
// Splitting at an existing span boundary returns the original partition
// unchanged, so the operation is idempotent.
func SplitAt(spans []RichText, pos int) (before, after []RichText) {
	if pos <= 0 {
		return nil, spans
	}
	offset := 0
	for _, s := range spans {
		end := offset + len(s.PlainText)
		switch {
		case end <= pos:
			before = append(before, s)
		case offset >= pos:
			after = append(after, s)
		default:
			head, tail := cutSpan(s, pos-offset)
			if !head.IsEmpty() {
				before = append(before, head)
			}
			if !tail.IsEmpty() {
				after = append(after, tail)
			}
		}
		offset = end
	}
	return before, after
}

// ExtractRange returns the spans (or partial spans) whose characters
// fall inside [start, end) of the joined text. Leading whitespace is
// trimmed from the first resulting span and trailing whitespace from
// the last one; internal spans are left untouched. The trim is a
// cosmetic normalization applied to all extracted definition and
// citation content.
func ExtractRange(spans []RichText, start, end int) []RichText {
	if end <= start {
		return nil
	}
	_, tail := SplitAt(spans, start)
	picked, _ := SplitAt(tail, end-start)
	out := CloneAll(picked)
	for len(out) > 0 {
		trimSpan(&out[0], strings.TrimLeft)
		if !out[0].IsEmpty() {
			break
		}
		out = out[1:]
	}
	for len(out) > 0 {
		last := len(out) - 1
		trimSpan(&out[last], strings.TrimRight)
		if !out[last].IsEmpty() {
			break
		}
		out = out[:last]
	}
	return out
}

// cutSpan splits one span at a byte offset inside its text, cloning the
// annotations into both halves.
func cutSpan(s RichText, at int) (head, tail RichText) {
	head = s.Clone()
	tail = s.Clone()
	head.PlainText = s.PlainText[:at]
	tail.PlainText = s.PlainText[at:]
	if head.Text != nil {
		head.Text.Content = head.PlainText
	}
	if tail.Text != nil {
		tail.Text.Content = tail.PlainText
	}
	return head, tail
}

func trimSpan(s *RichText, trim func(string, string) string) {
	s.PlainText = trim(s.PlainText, " \t\n\r")
	if s.Text != nil {
		s.Text.Content = s.PlainText
	}
}
