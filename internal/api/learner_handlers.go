package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/progression"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.engine.Profile(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, r, err, "load profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.engine.Board(r.Context(), userID(r), r.URL.Query().Get("domain"))
	if err != nil {
		respondServiceError(w, r, err, "load challenges")
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "challenge id is required")
		return
	}

	detail, err := s.engine.Challenge(r.Context(), userID(r), id, r.URL.Query().Get("domain"))
	if err != nil {
		respondServiceError(w, r, err, "load challenge")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := s.engine.Submit(r.Context(), userID(r), req)
	if err != nil {
		respondServiceError(w, r, err, "record submission")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	subs, err := s.engine.RecentSubmissions(r.Context(), userID(r), limit)
	if err != nil {
		respondServiceError(w, r, err, "list submissions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": subs,
		"count":       len(subs),
	})
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.engine.Dashboard(r.Context(), userID(r), r.URL.Query().Get("domain"))
	if err != nil {
		respondServiceError(w, r, err, "load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	problems, err := s.engine.Problems(r.Context(), userID(r), progression.ProblemQuery{
		Domain:     q.Get("domain"),
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
	})
	if err != nil {
		respondServiceError(w, r, err, "list problems")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"problems": problems,
		"count":    len(problems),
	})
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := s.engine.Problem(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "load problem")
		return
	}
	respondJSON(w, http.StatusOK, problem)
}
