package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

type createExerciseRequest struct {
	Name      string      `json:"name"`
	MaxWeight json.Number `json:"max_weight"`
}

type repsRequest struct {
	Reps progression.RepList `json:"reps"`
}

type phaseRequest struct {
	Direction string `json:"direction"`
}

type transitionResponse struct {
	tracker.Result
	Message string `json:"message"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.PhaseInfos())
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.unitParam(w, r)
	if !ok {
		return
	}
	list, err := s.tracker.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracker.Summarize(list, unit))
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error(), "kind": "invalid_input"})
		return
	}
	ex, err := s.tracker.AddExercise(r.Context(), req.Name, req.MaxWeight.String())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("exercise created", "exercise", ex.Name, "user", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusCreated, map[string]any{
		"exercise": ex,
		"message":  "Exercise added successfully!",
	})
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.unitParam(w, r)
	if !ok {
		return
	}
	v, err := s.tracker.View(r.Context(), chi.URLParam(r, "name"), unit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RemoveExercise(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveReps(w http.ResponseWriter, r *http.Request) {
	var req repsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error(), "kind": "invalid_input"})
		return
	}
	st, err := s.tracker.SaveDraft(r.Context(), chi.URLParam(r, "name"), req.Reps.Strings())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.unitParam(w, r)
	if !ok {
		return
	}
	var req repsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error(), "kind": "invalid_input"})
		return
	}
	// Without a reps list the saved draft is used.
	var reps []string
	if req.Reps != nil {
		reps = req.Reps.Strings()
	}
	res, err := s.tracker.CompleteSession(r.Context(), chi.URLParam(r, "name"), reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Result: res, Message: tracker.Message(res, unit)})
}

func (s *Server) handleChangePhase(w http.ResponseWriter, r *http.Request) {
	unit, ok := s.unitParam(w, r)
	if !ok {
		return
	}
	var req phaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error(), "kind": "invalid_input"})
		return
	}
	dir, err := progression.ParseDirection(req.Direction)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "kind": "invalid_input"})
		return
	}
	res, err := s.tracker.ChangePhase(r.Context(), chi.URLParam(r, "name"), dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Result: res, Message: tracker.Message(res, unit)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer", "kind": "invalid_input"})
			return
		}
		limit = n
	}
	logs, err := s.tracker.History(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// unitParam reads ?unit=, falling back to the server default. It writes a
// 400 and returns false for an unknown unit.
func (s *Server) unitParam(w http.ResponseWriter, r *http.Request) (progression.Unit, bool) {
	v := r.URL.Query().Get("unit")
	if v == "" {
		return s.unit, true
	}
	u, err := progression.ParseUnit(v)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "kind": "invalid_input"})
		return "", false
	}
	return u, true
}

// writeError maps tracker errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, progression.ErrInvalidName),
		errors.Is(err, progression.ErrInvalidWeight),
		errors.Is(err, progression.ErrIncompleteInput):
		status, kind = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, progression.ErrDuplicateExercise), errors.Is(err, storage.ErrDuplicate):
		status, kind = http.StatusConflict, "duplicate"
	case errors.Is(err, storage.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case tracker.IsDataIntegrity(err):
		kind = "data_integrity"
		s.log.Error("data integrity error", "error", err)
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
