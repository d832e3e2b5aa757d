// Package domain defines the record types flowing through the linguistic
// processing pipeline.
package domain

import "unicode/utf8"

// InputRecord is one content item from a rebuilt newspaper file.
// It is immutable once read.
type InputRecord struct {
	// ID is the content item identifier, globally unique per article,
	// e.g. "waeschfra-1884-05-10-a-i0005".
	ID string
	// Language is the embedded language hint, may be empty.
	Language string
	// Title is the extracted article title; nil when the field is absent.
	Title *string
	// FullText is the article body; nil when the field is absent.
	FullText *string
}

// TitleText returns the title or "" when absent.
func (r *InputRecord) TitleText() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// BodyText returns the full text or "" when absent.
func (r *InputRecord) BodyText() string {
	if r.FullText == nil {
		return ""
	}
	return *r.FullText
}

// TextLength is the combined title+body length in characters, not bytes;
// accented text counts one per rune, matching the persisted char_count.
func (r *InputRecord) TextLength() int {
	return utf8.RuneCountInString(r.TitleText()) + utf8.RuneCountInString(r.BodyText())
}
