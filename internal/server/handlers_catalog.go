package server

import (
	"net/http"

	"github.com/claude/setlog/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.svc.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var e models.Exercise
	if !decodeJSON(w, r, &e) {
		return
	}
	created, err := s.svc.CreateExercise(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	e, err := s.svc.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var e models.Exercise
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = id
	if err := s.svc.UpdateExercise(r.Context(), e); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.svc.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	history, err := s.svc.ExerciseHistory(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleListSubMuscles(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Store().ListSubMuscles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListMuscles(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Store().ListMuscles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListMuscularGroups(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Store().ListMuscularGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSubMuscle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sm, err := s.svc.CreateSubMuscle(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sm)
}

func (s *Server) handleCreateMuscle(w http.ResponseWriter, r *http.Request) {
	var m models.Muscle
	if !decodeJSON(w, r, &m) {
		return
	}
	created, err := s.svc.CreateMuscle(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCreateMuscularGroup(w http.ResponseWriter, r *http.Request) {
	var g models.MuscularGroup
	if !decodeJSON(w, r, &g) {
		return
	}
	created, err := s.svc.CreateMuscularGroup(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
