package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/leaderboard"
	"github.com/dbop14/FitApp-sub000/pkg/participant"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Server carries the API's dependencies.
type Server struct {
	DB     shared.Database
	Logger *slog.Logger
	TZ     *time.Location
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/users/{userID}/challenges/{challengeID}/weight", s.handleWeightLog)
		r.Post("/users/{userID}/challenges/{challengeID}/join", s.handleJoin)
		r.Delete("/users/{userID}/challenges/{challengeID}/leave", s.handleLeave)
		r.Get("/challenges/{challengeID}/leaderboard", s.handleLeaderboard)
	})
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// failures are the caller's fault, absent records are 404, everything else
// is a 500 with the detail kept out of the response body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case shared.IsNotFound(err):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.Logger.Error("Request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type weightLogRequest struct {
	Weight float64 `json:"weight"`
	Day    string  `json:"day,omitempty"` // defaults to today in the user's timezone
}

type scoreResponse struct {
	ChallengeID      string   `json:"challenge_id"`
	UserID           string   `json:"user_id"`
	StartingWeight   *float64 `json:"starting_weight,omitempty"`
	LastWeight       *float64 `json:"last_weight,omitempty"`
	StepGoalPoints   int      `json:"step_goal_points"`
	StepGoalDays     int      `json:"step_goal_days_achieved"`
	WeightLossPoints int      `json:"weight_loss_points"`
	TotalPoints      int      `json:"total_points"`
}

func toScoreResponse(state *types.ScoringState) scoreResponse {
	return scoreResponse{
		ChallengeID:      state.ChallengeID,
		UserID:           state.UserID,
		StartingWeight:   state.StartingWeight,
		LastWeight:       state.LastWeight,
		StepGoalPoints:   state.StepGoalPoints,
		StepGoalDays:     state.StepGoalDaysAchieved(),
		WeightLossPoints: state.WeightLossPoints,
		TotalPoints:      state.TotalPoints,
	}
}

// handleWeightLog is the manual weight log API: ledger upsert with manual
// source, then starting-weight confirmation and the weight-loss scorer.
func (s *Server) handleWeightLog(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	var req weightLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, shared.NewValidationError("body", "malformed JSON"))
		return
	}
	if req.Weight <= 0 {
		s.writeError(w, shared.NewValidationError("weight", "must be positive"))
		return
	}

	day := daykey.Today(s.userLocation(r, userID))
	if req.Day != "" {
		parsed, err := daykey.Parse(req.Day)
		if err != nil {
			s.writeError(w, shared.NewValidationError("day", "expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	window, err := s.DB.GetChallenge(r.Context(), challengeID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.DB.GetParticipant(r.Context(), challengeID, userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	weight := req.Weight
	mut := types.HistoryMutation{Day: day, Weight: &weight, Source: types.SourceManual}
	if _, err := s.DB.UpsertHistory(r.Context(), userID, mut); err != nil {
		s.writeError(w, err)
		return
	}

	if err := participant.ApplyWeighIn(r.Context(), s.DB, state, window, day, weight); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toScoreResponse(state))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	if _, err := s.DB.GetChallenge(r.Context(), challengeID); err != nil {
		s.writeError(w, err)
		return
	}

	displayName := userID
	if user, err := s.DB.GetUser(r.Context(), userID); err == nil && user.DisplayName != "" {
		displayName = user.DisplayName
	}

	state, err := participant.Join(r.Context(), s.DB, challengeID, userID, displayName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toScoreResponse(state))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	if err := participant.Leave(r.Context(), s.DB, challengeID, userID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type leaderboardResponse struct {
	ChallengeID string              `json:"challenge_id"`
	Day         string              `json:"day"`
	Entries     []leaderboard.Entry `json:"entries"`
}

// handleLeaderboard builds the ranked view. Weight-loss scores are
// recomputed read-time from the most authoritative weight; corrections are
// persisted opportunistically but the response never depends on the write.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	window, err := s.DB.GetChallenge(r.Context(), challengeID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	states, err := s.DB.ListParticipants(r.Context(), challengeID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	loc := daykey.LoadLocation(window.Timezone, s.TZ)
	today := daykey.Today(loc)

	entries := make([]leaderboard.Entry, 0, len(states))
	for _, state := range states {
		if _, err := participant.RefreshWeightScore(r.Context(), s.DB, state, today); err != nil {
			// Stale score is still servable; repair is best-effort.
			s.Logger.Warn("Leaderboard repair failed",
				"challenge_id", challengeID, "user_id", state.UserID, "error", err)
		}
		entries = append(entries, leaderboard.Entry{
			UserID:           state.UserID,
			DisplayName:      state.DisplayName,
			StepGoalPoints:   state.StepGoalPoints,
			WeightLossPoints: state.WeightLossPoints,
			TotalPoints:      state.TotalPoints,
		})
	}

	s.writeJSON(w, http.StatusOK, leaderboardResponse{
		ChallengeID: challengeID,
		Day:         string(today),
		Entries:     leaderboard.Rank(entries),
	})
}

// userLocation resolves the timezone for day-key decisions on this request:
// the user's configured zone when known, else the service default.
func (s *Server) userLocation(r *http.Request, userID string) *time.Location {
	user, err := s.DB.GetUser(r.Context(), userID)
	if err != nil {
		return s.TZ
	}
	return daykey.LoadLocation(user.Timezone, s.TZ)
}
