// Package model holds the note data model the merge engine reconciles:
// documents made of blocks, paragraph content with styled spans, the flat
// media list, ink strokes, selections and the closed Diff sum type.
package model

import "sort"

// SpanStyle is the style a Span applies to its interval.
type SpanStyle string

const (
	StyleBold          SpanStyle = "BOLD"
	StyleItalic        SpanStyle = "ITALIC"
	StyleUnderline     SpanStyle = "UNDERLINE"
	StyleStrikethrough SpanStyle = "STRIKETHROUGH"
)

// Span is a styled interval [Start, End) over Content.Text.
// Spans compare by value; two spans with identical fields are the same span.
type Span struct {
	Style SpanStyle `json:"style"`
	Start int       `json:"start"`
	End   int       `json:"end"`
	Flag  int       `json:"flag"`
}

// Len returns the number of characters the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Content is the text of a paragraph plus its styling spans.
type Content struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
}

// TextLen returns the length of the text in runes, the unit every offset uses.
func (c Content) TextLen() int { return len([]rune(c.Text)) }

// Clone returns a copy that shares no span storage with c.
func (c Content) Clone() Content {
	out := Content{Text: c.Text}
	if c.Spans != nil {
		out.Spans = append([]Span(nil), c.Spans...)
	}
	return out
}

// Normalize clamps every span into [0, TextLen()], drops spans that end
// before they start and sorts the remainder by (Start, End). Content left
// without spans has nil Spans.
func (c Content) Normalize() Content {
	n := c.TextLen()
	spans := make([]Span, 0, len(c.Spans))
	for _, s := range c.Spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > n {
			s.End = n
		}
		if s.Start > n || s.End < s.Start {
			continue
		}
		spans = append(spans, s)
	}
	SortSpans(spans)
	if len(spans) == 0 {
		spans = nil
	}
	return Content{Text: c.Text, Spans: spans}
}

// SortSpans orders spans by (Start, End) ascending, keeping the relative
// order of equal keys.
func SortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}
