package api

import (
	"encoding/json"
	"net/http"
)

type saveDownloadRequest struct {
	PDFData     string `json:"pdfData"`
	FileName    string `json:"fileName"`
	LessonID    string `json:"lessonId"`
	LessonTitle string `json:"lessonTitle"`
}

// handleSaveDownload stores a data-URI PDF in the downloads directory.
func (s *Server) handleSaveDownload(w http.ResponseWriter, r *http.Request) {
	// base64 inflates by 4/3; leave 1MB for the envelope.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes/3*4+1<<20)
	var req saveDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Error("save download: bad body", "error", err)
		successError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	res, err := s.deps.Downloads.Save(req.PDFData, req.FileName)
	if err != nil {
		s.log.Error("save download failed", "file", req.FileName, "lesson_id", req.LessonID, "error", err)
		successError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}
	if m := s.deps.Metrics; m != nil {
		m.DownloadsSaved.Inc()
		m.DownloadBytes.Add(float64(res.FileSize))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filePath": res.FilePath,
		"fileSize": res.FileSize,
		"message":  "File saved successfully",
	})
}

func (s *Server) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Downloads.List()
	if err != nil {
		s.log.Error("list downloads failed", "error", err)
		jsonError(w, "Failed to read downloads directory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}
