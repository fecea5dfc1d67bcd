package deck

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const mathDoc = `{"lessons":[{"id":"l1","slides":[{"id":"s1","type":"math","math":[{"label":"Eq1","formula":"x=1"}]}]}]}`

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode([]byte(`{
  "lessons": [
    {
      "id": "go-basics",
      "title": "Go Basics",
      "description": "Intro",
      "duration": "45 minutes",
      "slides": [
        {"id": 1, "type": "title", "title": "Welcome", "content": "Let's start"},
        {"id": 2, "type": "feature", "title": "Features", "description": "Why Go", "content": ["Fast", "Simple", "Typed"]},
        {"id": 3, "type": "code", "title": "Hello", "code": "fmt.Println(1)", "language": "go"},
        {"id": 4, "type": "math", "title": "Big O", "math": [{"label": "Loop", "formula": "O(n)"}, {"label": "Map", "formula": "O(1)"}]},
        {"id": 5, "type": "mermaid", "title": "Flow", "diagram": "graph TD; A-->B"},
        {"id": 6, "type": "closing", "title": "Thanks", "content": ["Questions?"]}
      ]
    }
  ]
}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestParseEdit(t *testing.T) {
	tests := []struct {
		path string
		want Edit
	}{
		{"title", SetTitle{Value: "v"}},
		{"subtitle", SetSubtitle{Value: "v"}},
		{"description", SetDescription{Value: "v"}},
		{"code", SetCode{Value: "v"}},
		{"diagram", SetDiagram{Value: "v"}},
		{"content", SetContent{Value: "v"}},
		{"content.2", SetContentItem{Index: 2, Value: "v"}},
		{"math.0.label", SetMathLabel{Index: 0, Value: "v"}},
		{"math.3.formula", SetMathFormula{Index: 3, Value: "v"}},
	}
	for _, tt := range tests {
		got, err := ParseEdit(tt.path, "v")
		if err != nil {
			t.Errorf("ParseEdit(%q): unexpected error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEdit(%q) = %#v, want %#v", tt.path, got, tt.want)
		}
		if got.Path() != tt.path {
			t.Errorf("Path() = %q, want %q", got.Path(), tt.path)
		}
	}
}

func TestParseEdit_Invalid(t *testing.T) {
	for _, path := range []string{"", "math", "math.x.label", "math.0", "math.0.color", "content.-1", "title.0", "slides.0.title", "content.a"} {
		if _, err := ParseEdit(path, "v"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("ParseEdit(%q): expected ErrInvalidPath, got %v", path, err)
		}
	}
}

func TestPatch_MathFormula(t *testing.T) {
	doc, err := Decode([]byte(mathDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	edit, err := ParseEdit("math.0.formula", "x=2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := doc.Patch("l1", "s1", edit); err != nil {
		t.Fatalf("patch: %v", err)
	}
	got := doc.Lessons[0].Slides[0].Math[0]
	if got.Formula != "x=2" {
		t.Errorf("expected formula %q, got %q", "x=2", got.Formula)
	}
	if got.Label != "Eq1" {
		t.Errorf("expected label unchanged, got %q", got.Label)
	}
}

func TestPatch_OnlyLeafChanges(t *testing.T) {
	edits := []struct {
		slideID string
		edit    Edit
		mutate  func(*Document)
	}{
		{"1", SetTitle{Value: "Hi"}, func(d *Document) { d.Lessons[0].Slides[0].Title = "Hi" }},
		{"1", SetContent{Value: "New"}, func(d *Document) { d.Lessons[0].Slides[0].Content = TextContent("New") }},
		{"2", SetContentItem{Index: 1, Value: "Small"}, func(d *Document) { d.Lessons[0].Slides[1].Content.Items[1] = "Small" }},
		{"2", SetDescription{Value: "Because"}, func(d *Document) { d.Lessons[0].Slides[1].Description = "Because" }},
		{"3", SetCode{Value: "x := 1"}, func(d *Document) { d.Lessons[0].Slides[2].Code = "x := 1" }},
		{"4", SetMathLabel{Index: 1, Value: "Hash"}, func(d *Document) { d.Lessons[0].Slides[3].Math[1].Label = "Hash" }},
		{"5", SetDiagram{Value: "graph LR; X-->Y"}, func(d *Document) { d.Lessons[0].Slides[4].Diagram = "graph LR; X-->Y" }},
	}
	for _, tt := range edits {
		got := sampleDocument(t)
		want := sampleDocument(t)
		tt.mutate(want)

		if _, err := got.Patch("go-basics", tt.slideID, tt.edit); err != nil {
			t.Errorf("%s: unexpected error: %v", tt.edit.Path(), err)
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: document mismatch (-want +got):\n%s", tt.edit.Path(), diff)
		}
	}
}

func TestPatch_NotFound(t *testing.T) {
	doc := sampleDocument(t)
	if _, err := doc.Patch("missing", "1", SetTitle{Value: "x"}); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("expected ErrLessonNotFound, got %v", err)
	}
	if _, err := doc.Patch("go-basics", "99", SetTitle{Value: "x"}); !errors.Is(err, ErrSlideNotFound) {
		t.Errorf("expected ErrSlideNotFound, got %v", err)
	}
	if _, err := doc.Patch("missing", "1", SetTitle{Value: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected lesson miss to match ErrNotFound, got %v", err)
	}
}

func TestPatch_InvalidForKind(t *testing.T) {
	tests := []struct {
		slideID string
		edit    Edit
		want    error
	}{
		{"1", SetCode{Value: "x"}, ErrFieldNotApplicable},
		{"3", SetContent{Value: "x"}, ErrFieldNotApplicable},
		{"5", SetMathLabel{Index: 0, Value: "x"}, ErrFieldNotApplicable},
		{"4", SetMathFormula{Index: 2, Value: "x"}, ErrIndexOutOfRange},
		{"2", SetContentItem{Index: 3, Value: "x"}, ErrIndexOutOfRange},
		{"1", SetContentItem{Index: 0, Value: "x"}, ErrInvalidPath},
	}
	for _, tt := range tests {
		doc := sampleDocument(t)
		before := sampleDocument(t)
		_, err := doc.Patch("go-basics", tt.slideID, tt.edit)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s on slide %s: expected %v, got %v", tt.edit.Path(), tt.slideID, tt.want, err)
		}
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("%s: expected error to match ErrInvalidPath, got %v", tt.edit.Path(), err)
		}
		if diff := cmp.Diff(before, doc); diff != "" {
			t.Errorf("%s: document changed on error:\n%s", tt.edit.Path(), diff)
		}
	}
}

func TestApply_DoesNotAliasOriginal(t *testing.T) {
	doc := sampleDocument(t)
	orig := doc.Lessons[0].Slides[1]
	updated, err := Apply(orig, SetContentItem{Index: 0, Value: "Quick"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.Content.Items[0] != "Quick" {
		t.Errorf("expected updated item, got %q", updated.Content.Items[0])
	}
	if orig.Content.Items[0] != "Fast" {
		t.Errorf("expected original untouched, got %q", orig.Content.Items[0])
	}
}
