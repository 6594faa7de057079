package server

import (
	"net/http"
	"strconv"

	"github.com/claude/setlog/internal/importer"
)

const maxImportBytes = 32 << 20

// handleImport reads an exported workout log from the request body and
// imports it for the caller. ?dry_run=true only reports counts.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dry_run"); v != "" {
		var err error
		if dryRun, err = strconv.ParseBool(v); err != nil {
			writeBadRequest(w, "invalid dry_run")
			return
		}
	}

	imp := importer.New(s.svc.Store(), s.log, s.inst, dryRun)
	stats, err := imp.Import(r.Context(), userIDFromContext(r), http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		s.log.Error("import failed", "error", err, "sessions_imported", stats.SessionsImported)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "stats": stats})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
