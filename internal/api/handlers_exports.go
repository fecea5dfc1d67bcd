package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/export"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/pipeline"
)

type submitExportRequest struct {
	LessonID string `json:"lessonId"`
	Mode     string `json:"mode"`
}

func (s *Server) handleSubmitExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exports == nil {
		jsonError(w, "exports unavailable", http.StatusServiceUnavailable)
		return
	}
	var req submitExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.LessonID == "" {
		jsonError(w, "lessonId is required", http.StatusBadRequest)
		return
	}
	mode, err := export.ParseMode(req.Mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.deps.Editor.DeckFor(r.Context(), req.LessonID); err != nil {
		if errors.Is(err, deck.ErrNotFound) {
			jsonError(w, "lesson not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to read slides", http.StatusInternalServerError)
		return
	}

	job, err := s.deps.Exports.Submit(req.LessonID, mode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"deck_id":  job.DeckID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/exports/%s", job.ID),
	})
}

func (s *Server) job(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	if s.deps.Exports == nil {
		jsonError(w, "exports unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	job := s.deps.Exports.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	return job, true
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleExportFile(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	res := job.Result()
	if res == nil {
		jsonError(w, "export not saved", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(res.FileName)+`"`)
	http.ServeFile(w, r, res.LocalPath)
}

type ledgerEntry struct {
	ledger.Record
	FileSizeLabel string `json:"fileSizeLabel,omitempty"`
}

func entry(rec ledger.Record) ledgerEntry {
	e := ledgerEntry{Record: rec}
	if rec.FileSize != nil {
		e.FileSizeLabel = ledger.FormatFileSize(*rec.FileSize)
	}
	return e
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	recs, err := s.deps.Ledger.List(r.Context())
	if err != nil {
		s.log.Error("ledger list failed", "error", err)
		jsonError(w, "failed to read ledger", http.StatusInternalServerError)
		return
	}
	out := make([]ledgerEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entry(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"downloads": out})
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.deps.Ledger.Get(r.Context(), chi.URLParam(r, "lessonID"))
	if err != nil {
		s.log.Error("ledger get failed", "error", err)
		jsonError(w, "failed to read ledger", http.StatusInternalServerError)
		return
	}
	if !ok {
		jsonError(w, "no download recorded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry(rec))
}

func (s *Server) handleRemoveLedger(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.Remove(r.Context(), chi.URLParam(r, "lessonID")); err != nil {
		s.log.Error("ledger remove failed", "error", err)
		jsonError(w, "failed to update ledger", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearLedger(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Ledger.Clear(r.Context()); err != nil {
		s.log.Error("ledger clear failed", "error", err)
		jsonError(w, "failed to update ledger", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
