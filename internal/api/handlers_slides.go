package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/outline"
	"github.com/dgallion1/lessondeck/internal/render"
)

type updateSlideRequest struct {
	LessonID string          `json:"lessonId"`
	SlideID  json.RawMessage `json:"slideId"`
	Field    string          `json:"field"`
	Value    json.RawMessage `json:"value"`
}

// handleUpdateSlide applies one field edit and rewrites the document.
func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateSlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		successError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	slideID, idErr := deck.ParseSlideID(req.SlideID)
	if req.LessonID == "" || idErr != nil || req.Field == "" || len(req.Value) == 0 {
		successError(w, "Missing required parameters", http.StatusBadRequest)
		return
	}
	var value string
	if err := json.Unmarshal(req.Value, &value); err != nil {
		successError(w, "value must be a string", http.StatusBadRequest)
		return
	}

	_, err := s.deps.Editor.UpdateSlide(r.Context(), req.LessonID, slideID.Text, req.Field, value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, deck.ErrLessonNotFound):
		successError(w, "Lesson not found", http.StatusNotFound)
	case errors.Is(err, deck.ErrSlideNotFound):
		successError(w, "Slide not found", http.StatusNotFound)
	case errors.Is(err, deck.ErrInvalidPath):
		successError(w, err.Error(), http.StatusBadRequest)
	default:
		s.log.Error("update slide failed", "lesson_id", req.LessonID, "slide_id", slideID.Text, "error", err)
		successError(w, "Failed to update slide", http.StatusInternalServerError)
	}
}

type lessonSummary struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Duration    string         `json:"duration"`
	SlideCount  int            `json:"slideCount"`
	Downloaded  bool           `json:"downloaded"`
	Download    *ledger.Record `json:"download,omitempty"`
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Editor.Document(r.Context())
	if err != nil {
		s.log.Error("read document failed", "error", err)
		jsonError(w, "failed to read slides", http.StatusInternalServerError)
		return
	}
	exported := map[string]ledger.Record{}
	if s.deps.Ledger != nil {
		if recs, err := s.deps.Ledger.List(r.Context()); err == nil {
			for _, rec := range recs {
				exported[rec.LessonID] = rec
			}
		}
	}
	out := make([]lessonSummary, 0, len(doc.Lessons))
	for _, l := range doc.Lessons {
		sum := lessonSummary{ID: l.ID, Title: l.Title, Description: l.Description, Duration: l.Duration, SlideCount: len(l.Slides)}
		if rec, ok := exported[l.ID]; ok {
			sum.Downloaded = true
			sum.Download = &rec
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": out})
}

func (s *Server) loadDeck(w http.ResponseWriter, r *http.Request) (deck.Deck, bool) {
	d, err := s.deps.Editor.DeckFor(r.Context(), chi.URLParam(r, "lessonID"))
	if errors.Is(err, deck.ErrNotFound) {
		jsonError(w, "lesson not found", http.StatusNotFound)
		return d, false
	}
	if err != nil {
		s.log.Error("read document failed", "error", err)
		jsonError(w, "failed to read slides", http.StatusInternalServerError)
		return d, false
	}
	return d, true
}

// handleGetLesson returns a lesson, or the unified deck, with its slides.
func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDeck(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck": d, "fileName": d.FileName()})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Renderer == nil {
		jsonError(w, "renderer unavailable", http.StatusServiceUnavailable)
		return
	}
	d, ok := s.loadDeck(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= len(d.Slides) {
		jsonError(w, "slide not found", http.StatusNotFound)
		return
	}
	img, err := s.deps.Renderer.Capture(r.Context(), d.Slides[i], render.Position{Index: i, Total: len(d.Slides)})
	if err != nil {
		s.log.Error("preview capture failed", "deck_id", d.ID, "index", i, "error", err)
		jsonError(w, "capture failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.JPEG)))
	w.Write(img.JPEG)
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDeck(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := outline.Write(&buf, d); err != nil {
		s.log.Error("outline failed", "deck_id", d.ID, "error", err)
		jsonError(w, "outline failed", http.StatusInternalServerError)
		return
	}
	name := strings.TrimSuffix(d.FileName(), ".pdf") + ".docx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Write(buf.Bytes())
}
