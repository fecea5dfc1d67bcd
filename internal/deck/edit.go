package deck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPath        = errors.New("invalid edit path")
	ErrFieldNotApplicable = fmt.Errorf("%w: field not applicable to slide kind", ErrInvalidPath)
	ErrIndexOutOfRange    = fmt.Errorf("%w: index out of range", ErrInvalidPath)
)

// Edit is a single scalar assignment to one addressable slide field.
type Edit interface {
	// Path returns the dotted path form, e.g. "math.0.label".
	Path() string
	apply(s *Slide) error
	value() string
}

type SetTitle struct{ Value string }
type SetSubtitle struct{ Value string }
type SetDescription struct{ Value string }
type SetCode struct{ Value string }
type SetDiagram struct{ Value string }

// SetContent replaces the whole content field with a scalar string.
type SetContent struct{ Value string }

// SetContentItem assigns one element of list content.
type SetContentItem struct {
	Index int
	Value string
}

type SetMathLabel struct {
	Index int
	Value string
}

type SetMathFormula struct {
	Index int
	Value string
}

func (e SetTitle) Path() string       { return "title" }
func (e SetSubtitle) Path() string    { return "subtitle" }
func (e SetDescription) Path() string { return "description" }
func (e SetCode) Path() string        { return "code" }
func (e SetDiagram) Path() string     { return "diagram" }
func (e SetContent) Path() string     { return "content" }
func (e SetContentItem) Path() string { return "content." + strconv.Itoa(e.Index) }
func (e SetMathLabel) Path() string   { return "math." + strconv.Itoa(e.Index) + ".label" }
func (e SetMathFormula) Path() string { return "math." + strconv.Itoa(e.Index) + ".formula" }

func (e SetTitle) value() string       { return e.Value }
func (e SetSubtitle) value() string    { return e.Value }
func (e SetDescription) value() string { return e.Value }
func (e SetCode) value() string        { return e.Value }
func (e SetDiagram) value() string     { return e.Value }
func (e SetContent) value() string     { return e.Value }
func (e SetContentItem) value() string { return e.Value }
func (e SetMathLabel) value() string   { return e.Value }
func (e SetMathFormula) value() string { return e.Value }

func (e SetTitle) apply(s *Slide) error {
	s.Title = e.Value
	return nil
}

func (e SetSubtitle) apply(s *Slide) error {
	s.Subtitle = e.Value
	return nil
}

func (e SetDescription) apply(s *Slide) error {
	if s.Type != KindFeature {
		return notApplicable(e, s)
	}
	s.Description = e.Value
	return nil
}

func (e SetCode) apply(s *Slide) error {
	if s.Type != KindCode {
		return notApplicable(e, s)
	}
	s.Code = e.Value
	return nil
}

func (e SetDiagram) apply(s *Slide) error {
	if s.Type != KindMermaid {
		return notApplicable(e, s)
	}
	s.Diagram = e.Value
	return nil
}

func (e SetContent) apply(s *Slide) error {
	if !hasContent(s.Type) {
		return notApplicable(e, s)
	}
	s.Content = TextContent(e.Value)
	return nil
}

func (e SetContentItem) apply(s *Slide) error {
	if !hasContent(s.Type) {
		return notApplicable(e, s)
	}
	if s.Content == nil || !s.Content.List {
		return fmt.Errorf("%w: %s on scalar content of slide %s", ErrInvalidPath, e.Path(), s.ID)
	}
	if e.Index < 0 || e.Index >= len(s.Content.Items) {
		return outOfRange(e, s, len(s.Content.Items))
	}
	s.Content.Items[e.Index] = e.Value
	return nil
}

func (e SetMathLabel) apply(s *Slide) error {
	item, err := mathItem(e, s, e.Index)
	if err != nil {
		return err
	}
	item.Label = e.Value
	return nil
}

func (e SetMathFormula) apply(s *Slide) error {
	item, err := mathItem(e, s, e.Index)
	if err != nil {
		return err
	}
	item.Formula = e.Value
	return nil
}

func mathItem(e Edit, s *Slide, i int) (*MathItem, error) {
	if s.Type != KindMath {
		return nil, notApplicable(e, s)
	}
	if i < 0 || i >= len(s.Math) {
		return nil, outOfRange(e, s, len(s.Math))
	}
	return &s.Math[i], nil
}

// hasContent reports which kinds carry a content field.
func hasContent(k Kind) bool {
	switch k {
	case KindTitle, KindFeature, KindClosing, KindMath:
		return true
	case KindCode, KindMermaid:
		return false
	}
	return false
}

func notApplicable(e Edit, s *Slide) error {
	return fmt.Errorf("%w: %s on %q slide %s", ErrFieldNotApplicable, e.Path(), s.Type, s.ID)
}

func outOfRange(e Edit, s *Slide, n int) error {
	return fmt.Errorf("%w: %s on slide %s (len %d)", ErrIndexOutOfRange, e.Path(), s.ID, n)
}

// ParseEdit converts a dotted field path and value into a typed edit.
// Numeric segments are indexes; everything else is a field key.
func ParseEdit(path, value string) (Edit, error) {
	parts := strings.Split(path, ".")
	bad := func() (Edit, error) { return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path) }

	switch {
	case len(parts) == 1:
		switch parts[0] {
		case "title":
			return SetTitle{Value: value}, nil
		case "subtitle":
			return SetSubtitle{Value: value}, nil
		case "description":
			return SetDescription{Value: value}, nil
		case "code":
			return SetCode{Value: value}, nil
		case "diagram":
			return SetDiagram{Value: value}, nil
		case "content":
			return SetContent{Value: value}, nil
		}
	case len(parts) == 2 && parts[0] == "content":
		i, ok := index(parts[1])
		if !ok {
			return bad()
		}
		return SetContentItem{Index: i, Value: value}, nil
	case len(parts) == 3 && parts[0] == "math":
		i, ok := index(parts[1])
		if !ok {
			return bad()
		}
		switch parts[2] {
		case "label":
			return SetMathLabel{Index: i, Value: value}, nil
		case "formula":
			return SetMathFormula{Index: i, Value: value}, nil
		}
	}
	return bad()
}

func index(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Patch applies e to the addressed slide in place.
// On error the document is left unchanged.
func (d *Document) Patch(lessonID, slideID string, e Edit) (*Slide, error) {
	lesson, err := d.Lesson(lessonID)
	if err != nil {
		return nil, err
	}
	slide, _, err := lesson.Slide(slideID)
	if err != nil {
		return nil, err
	}
	if err := e.apply(slide); err != nil {
		return nil, err
	}
	return slide, nil
}

// Apply applies e to a detached slide copy, as a client does to its local state
// after a successful save.
func Apply(s Slide, e Edit) (Slide, error) {
	out := s.clone()
	if err := e.apply(&out); err != nil {
		return s, err
	}
	return out, nil
}

func (s Slide) clone() Slide {
	out := s
	if s.Content != nil {
		c := *s.Content
		if c.Items != nil {
			c.Items = append([]string{}, c.Items...)
		}
		out.Content = &c
	}
	if s.Math != nil {
		out.Math = append([]MathItem{}, s.Math...)
	}
	return out
}
