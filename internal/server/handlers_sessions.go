package server

import (
	"net/http"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/training"
)

type dateRequest struct {
	Date string `json:"date"`
}

type weightRequest struct {
	Weight float64 `json:"weight"`
	Date   string  `json:"date"`
}

type activeSessionResponse struct {
	Session *models.Session `json:"session"`
	Created bool            `json:"created"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.ListSessions(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	session, err := s.svc.CreateSession(r.Context(), userIDFromContext(r), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// handleResolveActiveSession returns the session to continue on the given
// date (default today), creating one when none exists.
func (s *Server) handleResolveActiveSession(w http.ResponseWriter, r *http.Request) {
	today, err := parseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if today.IsZero() {
		today = s.svc.Today()
	}
	session, created, err := s.svc.ResolveActiveSession(r.Context(), userIDFromContext(r), today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activeSessionResponse{Session: session, Created: created})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	session, err := s.svc.GetSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	progress, err := s.svc.ClassifySession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var p training.LogSetParams
	if !decodeJSON(w, r, &p) {
		return
	}
	rec, err := s.svc.LogSet(r.Context(), userIDFromContext(r), id, p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var upd models.RecordUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	rec, err := s.svc.UpdateRecord(r.Context(), userIDFromContext(r), id, upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := s.svc.ListWeights(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weights)
}

func (s *Server) handleAddWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	entry, err := s.svc.AddWeight(r.Context(), userIDFromContext(r), req.Weight, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req weightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.svc.UpdateWeight(r.Context(), userIDFromContext(r), id, req.Weight, date); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
