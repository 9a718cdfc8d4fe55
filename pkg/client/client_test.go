package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/streak-engine/internal/models"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, code, message string) {
	body := map[string]interface{}{"success": status < 400}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code, "message": message}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", WithTimeout(5*time.Second))
}

func TestSubmit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/submissions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req models.SubmitRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.ChallengeID {
		case "day-1":
			writeEnvelope(w, http.StatusOK, models.SubmitResponse{
				Result:   models.ResultPassed,
				Advanced: true,
				Progress: &models.DomainProgress{Domain: models.DomainSE, CurrentDay: 2, CurrentStreak: 1, LongestStreak: 1},
			}, "", "")
		case "day-9":
			writeEnvelope(w, http.StatusForbidden, nil, "locked", "challenge is locked: day 9 is beyond current day 2")
		default:
			writeEnvelope(w, http.StatusNotFound, nil, "not_found", "challenge not found")
		}
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	resp, err := c.Submit(ctx, models.SubmitRequest{ChallengeID: "day-1", Code: "x"})
	require.NoError(t, err)
	assert.True(t, resp.Advanced)
	assert.Equal(t, 2, resp.Progress.CurrentDay)

	_, err = c.Submit(ctx, models.SubmitRequest{ChallengeID: "day-9", Code: "x"})
	require.Error(t, err)
	assert.True(t, IsLocked(err))
	assert.False(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "locked")

	_, err = c.Submit(ctx, models.SubmitRequest{ChallengeID: "nope", Code: "x"})
	assert.True(t, IsNotFound(err))
}

func TestReadEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/challenge", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ML", r.URL.Query().Get("domain"))
		writeEnvelope(w, http.StatusOK, models.ChallengeBoard{Domain: models.DomainML, CurrentDay: 3}, "", "")
	})
	mux.HandleFunc("/api/v1/submissions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, SubmissionList{
			Submissions: []*models.SubmissionSummary{{ID: "s1"}, {ID: "s2"}},
			Count:       2,
		}, "", "")
	})
	mux.HandleFunc("/api/v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeEnvelope(w, http.StatusOK, models.Dashboard{Domain: models.DomainSE, TotalProblemsSolved: 4}, "", "")
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]string{"status": "healthy"}, "", "")
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	board, err := c.Board(ctx, "ML")
	require.NoError(t, err)
	assert.Equal(t, 3, board.CurrentDay)

	subs, err := c.Submissions(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	dash, err := c.Dashboard(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, dash.TotalProblemsSolved)

	assert.NoError(t, c.Health(ctx))
}

func TestNonJSONError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := c.Profile(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "http_error", apiErr.Code)
}
