package server

import (
	"net/http"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/training"
)

type createTemplateRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type templateLineRequest struct {
	ExerciseID int64 `json:"exercise_id"`
	Sets       int   `json:"sets"`
}

func userActor(r *http.Request) training.Actor {
	return training.Actor{UserID: userIDFromContext(r)}
}

func adminActor(r *http.Request) training.Actor {
	return training.Actor{UserID: userIDFromContext(r), Admin: true}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.svc.ListTemplates(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	t, err := s.svc.GetTemplate(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	s.createTemplate(w, r, userActor(r), models.OwnedBy(userIDFromContext(r)))
}

func (s *Server) handleCreateGlobalTemplate(w http.ResponseWriter, r *http.Request) {
	s.createTemplate(w, r, adminActor(r), models.Global())
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request, actor training.Actor, ownership models.Ownership) {
	var req createTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := s.svc.CreateTemplate(r.Context(), actor, req.Name, req.Notes, ownership)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleAddTemplateLine(w http.ResponseWriter, r *http.Request) {
	s.addTemplateLine(w, r, userActor(r))
}

func (s *Server) handleAdminAddTemplateLine(w http.ResponseWriter, r *http.Request) {
	s.addTemplateLine(w, r, adminActor(r))
}

func (s *Server) addTemplateLine(w http.ResponseWriter, r *http.Request, actor training.Actor) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req templateLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	line, err := s.svc.AddTemplateLine(r.Context(), actor, id, req.ExerciseID, req.Sets)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) handleUpdateTemplateLine(w http.ResponseWriter, r *http.Request) {
	s.updateTemplateLine(w, r, userActor(r))
}

func (s *Server) handleAdminUpdateTemplateLine(w http.ResponseWriter, r *http.Request) {
	s.updateTemplateLine(w, r, adminActor(r))
}

func (s *Server) updateTemplateLine(w http.ResponseWriter, r *http.Request, actor training.Actor) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := int64Param(w, r, "lineID")
	if !ok {
		return
	}
	var req templateLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.UpdateTemplateLine(r.Context(), actor, id, lineID, req.Sets); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMaterializeTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	session, err := s.svc.MaterializeTemplate(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}
