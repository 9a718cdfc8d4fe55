package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/streak-engine/internal/models"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}

	user, err := s.engine.CreateUser(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "create user")
		return
	}

	slog.Info("user created", "user_id", user.ID, "role", user.Role, "by", userID(r))
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleAdminListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.engine.ListChallenges(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		respondServiceError(w, r, err, "list challenges")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": challenges,
		"count":      len(challenges),
	})
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallengeRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}

	challenge, err := s.engine.CreateChallenge(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "create challenge")
		return
	}

	slog.Info("challenge created",
		"challenge_id", challenge.ID,
		"domain", challenge.Domain,
		"day", challenge.DayNumber,
	)
	respondJSON(w, http.StatusCreated, challenge)
}

func (s *Server) handleUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateChallengeRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}

	challenge, err := s.engine.UpdateChallenge(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondServiceError(w, r, err, "update challenge")
		return
	}
	respondJSON(w, http.StatusOK, challenge)
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.DeleteChallenge(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete challenge")
		return
	}

	slog.Info("challenge deleted", "challenge_id", id)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "challenge deleted",
	})
}

func (s *Server) handleCreateProblem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProblemRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}

	problem, err := s.engine.CreateProblem(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "create problem")
		return
	}
	respondJSON(w, http.StatusCreated, problem)
}

func (s *Server) handleDeleteProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.DeleteProblem(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete problem")
		return
	}

	slog.Info("problem deleted", "problem_id", id)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "problem deleted",
	})
}
