package luma

import "unicode/utf16"

// Position is a zero-based line number and UTF-16 code unit column,
// following LSP text document addressing.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Document is an immutable snapshot of an open text document. The editor
// session supplies the URI and version; the text is stored as UTF-16 code
// units so that offsets and column positions match editor addressing exactly.
type Document struct {
	URI     string
	Version int32
	text    string
	units   []uint16
}

// NewDocument creates a snapshot of the given text.
func NewDocument(uri string, version int32, text string) *Document {
	return &Document{
		URI:     uri,
		Version: version,
		text:    text,
		units:   utf16.Encode([]rune(text)),
	}
}

// Text returns the full document text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the document length in UTF-16 code units.
func (d *Document) Len() int {
	return len(d.units)
}

// PositionAt converts an absolute UTF-16 code unit offset into a line and
// column position. Offsets outside the document are clamped.
func (d *Document) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.units) {
		offset = len(d.units)
	}

	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if d.units[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return Position{Line: line, Character: offset - lineStart}
}
