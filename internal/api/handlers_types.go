package api

import (
	"net/http"
)

// handleListTypes lists the document types and the fields each one collects.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"types": s.service.Catalog().Types()})
}
