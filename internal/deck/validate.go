package deck

import (
	"fmt"
	"strings"
)

// Problem is one validation finding.
type Problem struct {
	LessonID string `json:"lessonId"`
	SlideID  string `json:"slideId,omitempty"`
	Message  string `json:"message"`
}

func (p Problem) String() string {
	if p.SlideID == "" {
		return fmt.Sprintf("lesson %s: %s", p.LessonID, p.Message)
	}
	return fmt.Sprintf("lesson %s slide %s: %s", p.LessonID, p.SlideID, p.Message)
}

// Validate reports structural problems. Problems never block loading:
// a slide with an unknown kind still loads and renders blank.
func Validate(doc *Document) []Problem {
	var out []Problem
	lessonIDs := make(map[string]bool, len(doc.Lessons))
	for _, l := range doc.Lessons {
		add := func(slide, msg string) {
			out = append(out, Problem{LessonID: l.ID, SlideID: slide, Message: msg})
		}
		if strings.TrimSpace(l.ID) == "" {
			add("", "empty lesson id")
		} else if lessonIDs[l.ID] {
			add("", "duplicate lesson id")
		}
		lessonIDs[l.ID] = true
		if l.ID == UnifiedID {
			add("", "lesson id collides with the unified deck")
		}

		slideIDs := make(map[string]bool, len(l.Slides))
		for _, s := range l.Slides {
			id := s.ID.Text
			if id == "" {
				add("", "slide with empty id")
			} else if slideIDs[id] {
				add(id, "duplicate slide id")
			}
			slideIDs[id] = true

			switch s.Type {
			case KindTitle, KindFeature, KindClosing:
				if s.Content == nil {
					add(id, "missing content")
				}
			case KindCode:
				if s.Code == "" {
					add(id, "code slide without code")
				}
			case KindMath:
				if len(s.Math) == 0 {
					add(id, "math slide without formulas")
				}
				if s.Content != nil && s.Content.List {
					add(id, "math content must be a string")
				}
			case KindMermaid:
				if strings.TrimSpace(s.Diagram) == "" {
					add(id, "mermaid slide without diagram")
				}
			default:
				add(id, fmt.Sprintf("unknown slide type %q", s.Type))
			}
		}
	}
	return out
}
