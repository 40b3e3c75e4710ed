package http

import (
	"net/http"

	"github.com/jc9677/budget-app-2/internal/exchange"
	applog "github.com/jc9677/budget-app-2/internal/log"
)

// handleExport streams the full data set as a version 1.0 snapshot download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Transfer.Export(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.OpExport, err)
		return
	}

	filename := "budget-export-" + snap.ExportDate.UTC().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := exchange.Encode(w, snap); err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Failed to write export", err, applog.OpExport, nil)
	}
}

// handleImport replaces all accounts and rules with the posted snapshot and
// reports what was imported and skipped.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	snap, err := exchange.Decode(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeServiceError(w, r, applog.OpImport, err)
		return
	}
	report, err := s.deps.Transfer.Import(r.Context(), snap)
	if err != nil {
		writeServiceError(w, r, applog.OpImport, err)
		return
	}
	if report.Skipped == nil {
		report.Skipped = []exchange.Skip{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transfer.Reset(r.Context()); err != nil {
		writeServiceError(w, r, applog.OpReset, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
