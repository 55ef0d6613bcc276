package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/dgallion1/docfill/internal/preview"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type generateRequest struct {
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields"`
}

// handleGenerate fills the template of the requested type.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		jsonError(w, "type is required", http.StatusBadRequest)
		return
	}

	rec, err := s.service.Generate(req.Type, req.Fields)
	if err != nil {
		body := map[string]any{
			"error": err.Error(),
			"kind":  pipeline.KindOf(err).String(),
		}
		if rec.ID != "" {
			body["record_id"] = rec.ID
		}
		writeJSON(w, statusFor(err), body)
		return
	}

	w.Header().Set("Location", "/api/documents/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// handleGetRecord returns a previous generation.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.service.Record(chi.URLParam(r, "recordID"))
	if !ok {
		jsonError(w, "record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDownload streams the generated document.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.completedRecord(w, r)
	if !ok {
		return
	}
	f, err := os.Open(rec.OutputPath)
	if err != nil {
		jsonError(w, "generated file is no longer available", http.StatusGone)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "failed to read generated file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filepath.Base(rec.OutputPath),
	}))
	http.ServeContent(w, r, "", info.ModTime(), f)
}

// handlePreview renders the generated document as HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.completedRecord(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := preview.RenderFile(&buf, rec.OutputPath, rec.DocType); err != nil {
		s.log.Error("preview failed", "record_id", rec.ID, "error", err)
		jsonError(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) completedRecord(w http.ResponseWriter, r *http.Request) (pipeline.Record, bool) {
	rec, ok := s.service.Record(chi.URLParam(r, "recordID"))
	if !ok {
		jsonError(w, "record not found", http.StatusNotFound)
		return rec, false
	}
	if rec.Status != pipeline.StatusCompleted {
		jsonError(w, "document was not generated", http.StatusConflict)
		return rec, false
	}
	return rec, true
}

func statusFor(err error) int {
	switch pipeline.KindOf(err) {
	case pipeline.KindInvalidArgument:
		return http.StatusBadRequest
	case pipeline.KindTemplateNotFound:
		return http.StatusNotFound
	case pipeline.KindTemplateCorrupt:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
