package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags which field set and layout a slide uses.
type Kind string

const (
	KindTitle   Kind = "title"
	KindFeature Kind = "feature"
	KindCode    Kind = "code"
	KindMath    Kind = "math"
	KindMermaid Kind = "mermaid"
	KindClosing Kind = "closing"
)

// Kinds lists every slide kind the renderer knows.
var Kinds = []Kind{KindTitle, KindFeature, KindCode, KindMath, KindMermaid, KindClosing}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTitle, KindFeature, KindCode, KindMath, KindMermaid, KindClosing:
		return true
	}
	return false
}

var (
	ErrNotFound       = errors.New("not found")
	ErrLessonNotFound = fmt.Errorf("lesson %w", ErrNotFound)
	ErrSlideNotFound  = fmt.Errorf("slide %w", ErrNotFound)
)

// Document is the top-level persisted object.
type Document struct {
	Lessons []Lesson `json:"lessons"`
}

// Lesson is one deck of slides.
type Lesson struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    string  `json:"duration"`
	Slides      []Slide `json:"slides"`
}

// Slide is a tagged variant; which optional fields are meaningful depends on Type.
type Slide struct {
	ID          SlideID    `json:"id"`
	Type        Kind       `json:"type"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description,omitempty"`
	Content     *Content   `json:"content,omitempty"`
	Code        string     `json:"code,omitempty"`
	Language    string     `json:"language,omitempty"`
	Math        []MathItem `json:"math,omitempty"`
	Diagram     string     `json:"diagram,omitempty"`
	DiagramType string     `json:"diagram_type,omitempty"`
}

// MathItem is one labelled LaTeX formula.
type MathItem struct {
	Label   string `json:"label"`
	Formula string `json:"formula"`
}

// SlideID is a slide identifier that may be encoded as a JSON string or number.
// The original encoding is kept so rewrites do not change untouched ids.
type SlideID struct {
	Text    string
	Numeric bool
}

// StringID returns a string-encoded slide id.
func StringID(s string) SlideID { return SlideID{Text: s} }

func (id SlideID) String() string { return id.Text }

func (id SlideID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(id.Text), nil
	}
	return marshal(id.Text)
}

func (id *SlideID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		id.Numeric = false
		return json.Unmarshal(data, &id.Text)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("slide id: %w", err)
	}
	id.Text = n.String()
	id.Numeric = true
	return nil
}

// ParseSlideID decodes a raw JSON id value as sent by clients.
func ParseSlideID(raw json.RawMessage) (SlideID, error) {
	var id SlideID
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return id, errors.New("slide id is empty")
	}
	if err := id.UnmarshalJSON(raw); err != nil {
		return id, err
	}
	if id.Text == "" {
		return id, errors.New("slide id is empty")
	}
	return id, nil
}

// Content is either a single string or an ordered list of strings.
// List selects the rendering branch.
type Content struct {
	Text  string
	Items []string
	List  bool
}

// TextContent returns scalar content.
func TextContent(s string) *Content { return &Content{Text: s} }

// ListContent returns list content.
func ListContent(items ...string) *Content {
	if items == nil {
		items = []string{}
	}
	return &Content{Items: items, List: true}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.List {
		items := c.Items
		if items == nil {
			items = []string{}
		}
		return marshal(items)
	}
	return marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("content list: %w", err)
		}
		if items == nil {
			items = []string{}
		}
		*c = Content{Items: items, List: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	*c = Content{Text: s}
	return nil
}

// Lines returns the content as display lines regardless of shape.
func (c *Content) Lines() []string {
	if c == nil {
		return nil
	}
	if c.List {
		return c.Items
	}
	if c.Text == "" {
		return nil
	}
	return []string{c.Text}
}

// Lesson looks up a lesson by id.
func (d *Document) Lesson(id string) (*Lesson, error) {
	for i := range d.Lessons {
		if d.Lessons[i].ID == id {
			return &d.Lessons[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, id)
}

// Slide looks up a slide by id within the lesson and returns it with its index.
func (l *Lesson) Slide(id string) (*Slide, int, error) {
	for i := range l.Slides {
		if l.Slides[i].ID.Text == id {
			return &l.Slides[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %s/%s", ErrSlideNotFound, l.ID, id)
}

// Decode parses a document from JSON.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Encode serializes the document with two-space indentation and without
// HTML escaping, so diagram arrows like "-->" stay readable.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unified deck identity.
const (
	UnifiedID       = "unified"
	UnifiedTitle    = "Unified Programming Lessons"
	UnifiedFileName = "unified-programming-lessons.pdf"
	unnamedFileName = "presentation.pdf"
)

// Deck is the ordered sequence of slides exported together.
type Deck struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Unified bool        `json:"unified"`
	Slides  []DeckSlide `json:"slides"`
}

// DeckSlide is a slide with the lesson it came from.
type DeckSlide struct {
	LessonID    string `json:"lessonId"`
	LessonTitle string `json:"lessonTitle"`
	Index       int    `json:"slideIndex"`
	Slide       Slide  `json:"slide"`
}

// Deck returns the lesson as a deck.
func (l *Lesson) Deck() Deck {
	d := Deck{ID: l.ID, Title: l.Title, Slides: make([]DeckSlide, 0, len(l.Slides))}
	for i, s := range l.Slides {
		d.Slides = append(d.Slides, DeckSlide{LessonID: l.ID, LessonTitle: l.Title, Index: i, Slide: s})
	}
	return d
}

// UnifiedDeck concatenates every lesson's slides in document order.
func (d *Document) UnifiedDeck() Deck {
	out := Deck{ID: UnifiedID, Title: UnifiedTitle, Unified: true}
	for i := range d.Lessons {
		out.Slides = append(out.Slides, d.Lessons[i].Deck().Slides...)
	}
	return out
}

// DeckFor resolves a lesson id, or UnifiedID, to a deck.
func (d *Document) DeckFor(id string) (Deck, error) {
	if id == UnifiedID {
		return d.UnifiedDeck(), nil
	}
	l, err := d.Lesson(id)
	if err != nil {
		return Deck{}, err
	}
	return l.Deck(), nil
}

// whitespaceRun matches what browsers treat as \s: ASCII space characters plus
// Unicode space separators, line/paragraph separators and the BOM.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// FileName derives the PDF file name for the deck.
func (d Deck) FileName() string {
	if d.Unified {
		return UnifiedFileName
	}
	if whitespaceRun.ReplaceAllString(d.Title, "") == "" {
		return unnamedFileName
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(d.Title, "-")) + ".pdf"
}

// Counter formats a 1-based position like "3/10".
func Counter(i, n int) string {
	return strconv.Itoa(i+1) + "/" + strconv.Itoa(n)
}
