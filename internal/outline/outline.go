// Package outline writes a DOCX handout of a deck: one section per slide with
// its text, code, formulas and diagram source.
package outline

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/render"
)

const (
	titleSize   = "48" // half-points
	headingSize = "32"
	bodySize    = "22"
	codeSize    = "18"
	codeFont    = "Courier New"
)

// plain strips inline markdown so the handout shows readable text.
func plain(s string) string {
	return render.PlainText(render.ParseInline(s))
}

// Write renders d as a DOCX document to w.
func Write(w io.Writer, d deck.Deck) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(d.Title).Bold().Size(titleSize)
	doc.AddParagraph().AddText(fmt.Sprintf("%d slides", len(d.Slides))).Italic().Size(bodySize)

	lesson := ""
	for i, ds := range d.Slides {
		if d.Unified && ds.LessonID != lesson {
			lesson = ds.LessonID
			doc.AddParagraph().AddText(ds.LessonTitle).Bold().Size(titleSize)
		}
		writeSlide(doc, ds.Slide, deck.Counter(i, len(d.Slides)))
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func writeSlide(doc *docx.Docx, s deck.Slide, counter string) {
	doc.AddParagraph().AddText(counter + "  " + plain(s.Title)).Bold().Size(headingSize)
	if s.Subtitle != "" {
		doc.AddParagraph().AddText(plain(s.Subtitle)).Italic().Size(bodySize)
	}
	if s.Description != "" {
		doc.AddParagraph().AddText(plain(s.Description)).Size(bodySize)
	}

	if s.Content != nil {
		for _, ln := range s.Content.Lines() {
			text := plain(ln)
			if s.Content.List {
				text = "• " + text
			}
			doc.AddParagraph().AddText(text).Size(bodySize)
		}
	}

	switch s.Type {
	case deck.KindCode:
		if s.Language != "" {
			doc.AddParagraph().AddText(s.Language).Italic().Size(codeSize)
		}
		writeMono(doc, s.Code)
	case deck.KindMath:
		for _, m := range s.Math {
			doc.AddParagraph().AddText(m.Label + ": " + m.Formula).Size(bodySize).Font(codeFont, codeFont, codeFont, "default")
		}
	case deck.KindMermaid:
		if s.DiagramType != "" {
			doc.AddParagraph().AddText(s.DiagramType).Italic().Size(codeSize)
		}
		writeMono(doc, s.Diagram)
	}
}

func writeMono(doc *docx.Docx, src string) {
	for _, ln := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		doc.AddParagraph().AddText(ln).Size(codeSize).Font(codeFont, codeFont, codeFont, "default")
	}
}
