// Package musicxml is a thin document-model adapter over a generic XML DOM.
// It parses MusicXML text into a tree whose element order is preserved
// exactly, serializes the tree back with the standard XML declaration, and
// offers typed accessors for the note-level structure the corrective
// transforms care about. It never reorders parts, measures, or notes.
package musicxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/subchen/go-xmldom"
	"golang.org/x/net/html/charset"
)

// Header is the XML declaration every serialized document starts with.
const Header = xml.Header

// ParseError marks input that could not be parsed into a document tree.
// Callers running best-effort transforms detect it with errors.As and fall
// back to the original text.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "musicxml: parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// Document wraps a parsed MusicXML tree.
type Document struct {
	dom *xmldom.Document
}

var encodingDeclRe = regexp.MustCompile(`(?i)<\?xml[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// Parse builds a Document from MusicXML text. Input declaring a non-UTF-8
// encoding is transcoded first. Malformed input yields a *ParseError.
func Parse(text string) (*Document, error) {
	normalized, err := toUTF8(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	doc, err := xmldom.ParseXML(normalized)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Root == nil {
		return nil, &ParseError{Err: io.ErrUnexpectedEOF}
	}
	return &Document{dom: doc}, nil
}

// toUTF8 transcodes text whose XML declaration names a non-UTF-8 charset.
// OMR engines and notation editors commonly emit ISO-8859-1 documents.
func toUTF8(text string) (string, error) {
	m := encodingDeclRe.FindStringSubmatch(text)
	if m == nil {
		return text, nil
	}
	label := strings.ToLower(m[1])
	if label == "utf-8" || label == "utf8" {
		return text, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader([]byte(text)))
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	// The declaration itself is ASCII and survives transcoding verbatim.
	fixedDecl := strings.Replace(m[0], m[1], "UTF-8", 1)
	return strings.Replace(string(decoded), m[0], fixedDecl, 1), nil
}

// Serialize renders the tree. The output always begins with the standard
// XML declaration; DOM serializers commonly drop it.
func (d *Document) Serialize() string {
	return EnsureHeader(d.dom.XML())
}

// EnsureHeader prepends the XML declaration unless text already carries one.
func EnsureHeader(text string) string {
	if strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "<?xml") {
		return text
	}
	return Header + text
}

// Root exposes the underlying DOM root for transforms.
func (d *Document) Root() *xmldom.Node { return d.dom.Root }

// Parts returns the document's part elements in document order.
func (d *Document) Parts() []*xmldom.Node {
	return childrenNamed(d.dom.Root, "part")
}

// Measures returns a part's measure elements in document order.
func Measures(part *xmldom.Node) []*xmldom.Node {
	return childrenNamed(part, "measure")
}

// Notes returns a measure's note elements in document order. Other measure
// content (attributes, backups, directions) is skipped, not reordered.
func Notes(measure *xmldom.Node) []*xmldom.Node {
	return childrenNamed(measure, "note")
}

func childrenNamed(n *xmldom.Node, name string) []*xmldom.Node {
	if n == nil {
		return nil
	}
	var out []*xmldom.Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child with the given name, or nil.
func Child(n *xmldom.Node, name string) *xmldom.Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first direct child with the given name.
func ChildText(n *xmldom.Node, name string) string {
	if c := Child(n, name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// IsRest reports whether a note element is a rest.
func IsRest(note *xmldom.Node) bool { return Child(note, "rest") != nil }

// IsGrace reports whether a note element is a grace note.
func IsGrace(note *xmldom.Node) bool { return Child(note, "grace") != nil }

// IsChordContinuation reports whether a note sounds together with the
// preceding note in document order.
func IsChordContinuation(note *xmldom.Node) bool { return Child(note, "chord") != nil }

// Voice returns the note's voice identifier, defaulting to "1".
func Voice(note *xmldom.Node) string {
	if v := ChildText(note, "voice"); v != "" {
		return v
	}
	return "1"
}

// NoteType returns the note's duration type name ("quarter", "eighth", ...).
func NoteType(note *xmldom.Node) string { return ChildText(note, "type") }

// ReplaceBeams removes every beam marker on the note and installs a single
// level-1 marker with the given value. A note carries at most one marker per
// beam number; markers are replaced, never appended to.
func ReplaceBeams(note *xmldom.Node, value string) {
	ClearBeams(note)
	beam := note.CreateNode("beam")
	beam.SetAttributeValue("number", "1")
	beam.Text = value
}

// ClearBeams removes every beam marker on the note.
func ClearBeams(note *xmldom.Node) {
	kept := note.Children[:0]
	for _, c := range note.Children {
		if c.Name != "beam" {
			kept = append(kept, c)
		}
	}
	note.Children = kept
}

// Beams returns the values of the note's beam markers in document order.
func Beams(note *xmldom.Node) []string {
	var out []string
	for _, c := range childrenNamed(note, "beam") {
		out = append(out, strings.TrimSpace(c.Text))
	}
	return out
}
