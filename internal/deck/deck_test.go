package deck

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const canonical = `{
  "lessons": [
    {
      "id": "l1",
      "title": "Graphs",
      "description": "Graph basics",
      "duration": "30 minutes",
      "slides": [
        {
          "id": 1,
          "type": "title",
          "title": "Graphs",
          "content": "Nodes & edges"
        },
        {
          "id": "s2",
          "type": "mermaid",
          "title": "Flow",
          "diagram": "graph TD; A-->B",
          "diagram_type": "flowchart"
        },
        {
          "id": 3,
          "type": "feature",
          "title": "Kinds",
          "description": "Two <kinds>",
          "content": [
            "Directed",
            "Undirected"
          ]
        }
      ]
    }
  ]
}`

func TestEncode_RoundTripIsByteIdentical(t *testing.T) {
	doc, err := Decode([]byte(canonical))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != canonical {
		t.Errorf("round trip changed bytes:\ngot:\n%s\nwant:\n%s", out, canonical)
	}
}

func TestSlideID_PreservesEncoding(t *testing.T) {
	doc, err := Decode([]byte(canonical))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	slides := doc.Lessons[0].Slides
	if !slides[0].ID.Numeric || slides[0].ID.Text != "1" {
		t.Errorf("expected numeric id 1, got %+v", slides[0].ID)
	}
	if slides[1].ID.Numeric || slides[1].ID.Text != "s2" {
		t.Errorf("expected string id s2, got %+v", slides[1].ID)
	}
	if _, _, err := doc.Lessons[0].Slide("1"); err != nil {
		t.Errorf("expected lookup of numeric id by text to succeed: %v", err)
	}
}

func TestParseSlideID(t *testing.T) {
	id, err := ParseSlideID(json.RawMessage(`7`))
	if err != nil || id.Text != "7" {
		t.Errorf("expected 7, got %+v (%v)", id, err)
	}
	id, err = ParseSlideID(json.RawMessage(`"intro"`))
	if err != nil || id.Text != "intro" {
		t.Errorf("expected intro, got %+v (%v)", id, err)
	}
	for _, raw := range []string{``, `null`, `""`, `{}`} {
		if _, err := ParseSlideID(json.RawMessage(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestContent_Shapes(t *testing.T) {
	var s Slide
	if err := json.Unmarshal([]byte(`{"id":"a","type":"closing","title":"t","content":[]}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Content == nil || !s.Content.List || len(s.Content.Items) != 0 {
		t.Errorf("expected empty list content, got %+v", s.Content)
	}
	out, _ := json.Marshal(s)
	if !strings.Contains(string(out), `"content":[]`) {
		t.Errorf("expected empty list to stay a list, got %s", out)
	}
	if got := TextContent("one").Lines(); len(got) != 1 || got[0] != "one" {
		t.Errorf("expected one line, got %v", got)
	}
	if got := (*Content)(nil).Lines(); got != nil {
		t.Errorf("expected nil lines for nil content, got %v", got)
	}
}

func TestDeck_FileName(t *testing.T) {
	tests := []struct {
		deck Deck
		want string
	}{
		{Deck{Title: "Go Basics"}, "go-basics.pdf"},
		{Deck{Title: "Data   Structures\tand Algorithms"}, "data-structures-and-algorithms.pdf"},
		{Deck{Title: " Leading"}, "-leading.pdf"},
		{Deck{Title: ""}, "presentation.pdf"},
		{Deck{Title: "Go\u00a0Basics\u2003Two"}, "go-basics-two.pdf"},
		{Deck{Title: "Rust\u3000Intro\ufeff"}, "rust-intro-.pdf"},
		{Deck{Title: "\u00a0\ufeff"}, "presentation.pdf"},
		{Deck{Title: "Anything", Unified: true}, "unified-programming-lessons.pdf"},
	}
	for _, tt := range tests {
		if got := tt.deck.FileName(); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.deck.Title, got, tt.want)
		}
	}
}

func TestDocument_UnifiedDeck(t *testing.T) {
	doc := &Document{Lessons: []Lesson{
		{ID: "a", Title: "A", Slides: []Slide{{ID: StringID("1"), Type: KindTitle}, {ID: StringID("2"), Type: KindClosing}}},
		{ID: "b", Title: "B", Slides: []Slide{{ID: StringID("1"), Type: KindCode}}},
	}}
	d, err := doc.DeckFor(UnifiedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Unified || d.Title != UnifiedTitle {
		t.Errorf("expected unified deck, got %+v", d)
	}
	if len(d.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(d.Slides))
	}
	if d.Slides[2].LessonID != "b" || d.Slides[2].Index != 0 {
		t.Errorf("expected third slide from lesson b index 0, got %+v", d.Slides[2])
	}

	if _, err := doc.DeckFor("zzz"); !errors.Is(err, ErrLessonNotFound) {
		t.Errorf("expected ErrLessonNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	doc := &Document{Lessons: []Lesson{
		{ID: "a", Slides: []Slide{
			{ID: StringID("1"), Type: KindTitle, Content: TextContent("x")},
			{ID: StringID("1"), Type: KindCode},
			{ID: StringID("3"), Type: "video"},
		}},
		{ID: "a"},
	}}
	problems := Validate(doc)
	want := []string{"duplicate slide id", "code slide without code", `unknown slide type "video"`, "duplicate lesson id"}
	if len(problems) != len(want) {
		t.Fatalf("expected %d problems, got %d: %v", len(want), len(problems), problems)
	}
	for i, w := range want {
		if problems[i].Message != w {
			t.Errorf("problem[%d]: expected %q, got %q", i, w, problems[i].Message)
		}
	}
}
