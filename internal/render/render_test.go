package render

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/lessondeck/internal/deck"
)

func sampleSlides() []deck.Slide {
	return []deck.Slide{
		{ID: deck.StringID("t"), Type: deck.KindTitle, Title: "Intro to **Go**", Subtitle: "Basics"},
		{ID: deck.StringID("f"), Type: deck.KindFeature, Title: "Features", Description: "Why it matters",
			Content: deck.ListContent("Fast `builds`", "Simple *syntax*", "List<T> is not Go")},
		{ID: deck.StringID("c"), Type: deck.KindCode, Title: "Hello", Language: "go",
			Code: "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}"},
		{ID: deck.StringID("m"), Type: deck.KindMath, Title: "Sums", Content: deck.TextContent("Gauss"),
			Math: []deck.MathItem{{Label: "Sum", Formula: `\sum_{i=1}^{n} i = \frac{n(n+1)}{2}`}}},
		{ID: deck.StringID("d"), Type: deck.KindMermaid, Title: "Flow", Diagram: "graph TD\n  A-->B", DiagramType: "flowchart"},
		{ID: deck.StringID("e"), Type: deck.KindClosing, Title: "Thanks", Content: deck.TextContent("Questions?")},
		{ID: deck.StringID("x"), Type: deck.Kind("hologram"), Title: "Unknown"},
	}
}

func TestRenderer_CaptureEveryKind(t *testing.T) {
	r, err := NewRenderer(DefaultOptions())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	slides := sampleSlides()
	for i, s := range slides {
		ds := deck.DeckSlide{LessonID: "l1", LessonTitle: "Lesson", Index: i, Slide: s}
		img, err := r.Capture(context.Background(), ds, Position{Index: i, Total: len(slides)})
		if err != nil {
			t.Fatalf("capture %s: %v", s.Type, err)
		}
		if img.Width != 2400 || img.Height != 1350 {
			t.Errorf("%s: expected 2400x1350, got %dx%d", s.Type, img.Width, img.Height)
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.JPEG))
		if err != nil {
			t.Fatalf("%s: decode jpeg: %v", s.Type, err)
		}
		if cfg.Width != 2400 || cfg.Height != 1350 {
			t.Errorf("%s: expected encoded 2400x1350, got %dx%d", s.Type, cfg.Width, cfg.Height)
		}
		if img.Index != i {
			t.Errorf("expected index %d, got %d", i, img.Index)
		}
	}
}

func TestRenderer_PixelRatioOne(t *testing.T) {
	r, err := NewRenderer(Options{PixelRatio: 1})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	img, err := r.Capture(context.Background(), deck.DeckSlide{Slide: sampleSlides()[0]}, Position{Total: 1})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if img.Width != 1200 || img.Height != 675 {
		t.Errorf("expected 1200x675, got %dx%d", img.Width, img.Height)
	}
}

func TestRenderer_NotMounted(t *testing.T) {
	r, err := NewRenderer(DefaultOptions())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	_, err = r.Capture(context.Background(), deck.DeckSlide{}, Position{Index: 0, Total: 0})
	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CaptureError, got %v", err)
	}
	if !errors.Is(err, ErrNotMounted) {
		t.Errorf("expected ErrNotMounted, got %v", err)
	}
}

func TestRenderer_CanceledContext(t *testing.T) {
	r, err := NewRenderer(DefaultOptions())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Capture(ctx, deck.DeckSlide{Slide: sampleSlides()[0]}, Position{Total: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseInline_Styles(t *testing.T) {
	got := ParseInline("**Hello** world")
	want := []Run{{Text: "Hello", Style: StyleBold}, {Text: " world"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	got = ParseInline("use `go test` *now*")
	want = []Run{{Text: "use "}, {Text: "go test", Style: StyleCode}, {Text: " "}, {Text: "now", Style: StyleItalic}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInline_KeepsUnknownTags(t *testing.T) {
	got := PlainText(ParseInline("List<T> holds items"))
	if !strings.Contains(got, "List<T>") {
		t.Errorf("expected literal List<T>, got %q", got)
	}
}

func TestParseInline_Empty(t *testing.T) {
	if runs := ParseInline("   "); runs != nil {
		t.Errorf("expected nil runs for blank input, got %v", runs)
	}
}

func charWidth(s string, _ Style) float64 { return float64(len(s)) }

func lineTexts(lines []line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = PlainText(l)
	}
	return out
}

func TestWrapRuns(t *testing.T) {
	tests := []struct {
		name  string
		runs  []Run
		width float64
		want  []string
	}{
		{"fits", []Run{{Text: "aaa bbb"}}, 10, []string{"aaa bbb"}},
		{"wraps", []Run{{Text: "aaa bbb ccc"}}, 7, []string{"aaa bbb", "ccc"}},
		{"long word", []Run{{Text: "abcdefghij x"}}, 4, []string{"abcdefghij", "x"}},
		{"newline", []Run{{Text: "a\nb"}}, 10, []string{"a", "b"}},
		{"styled join", []Run{{Text: "bold", Style: StyleBold}, {Text: "er text"}}, 20, []string{"bolder text"}},
		{"styled space", []Run{{Text: "bold ", Style: StyleBold}, {Text: "text"}}, 20, []string{"bold text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineTexts(wrapRuns(tt.runs, tt.width, charWidth))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
