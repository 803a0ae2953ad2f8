// Package reconcile replays step-goal scores from the history ledger and
// persists the corrected values. It is the drift-correction path shared by
// the hourly reconciler, the nightly backfill, and the inspection tooling.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/scoring"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Stats summarizes one reconciliation pass.
type Stats struct {
	Participants int `json:"participants"`
	Corrected    int `json:"corrected"`
	Failed       int `json:"failed"`
}

// Participant replays one participant's step-goal score from the ledger and
// persists it when it differs from storage. Zero qualifying days is a
// normal outcome, not an error.
func Participant(ctx context.Context, db shared.Database, state *types.ScoringState, window *types.ChallengeWindow, today daykey.Key) (bool, error) {
	entries, err := db.QueryHistory(ctx, state.UserID, window.StartDay, window.LastScoreDay(today))
	if err != nil {
		return false, fmt.Errorf("query ledger for %s: %w", state.UserID, err)
	}

	replay := *state
	result := scoring.Reconcile(&replay, window, entries, today)
	if !result.Changed {
		return false, nil
	}

	if err := db.ReplaceStepScore(ctx, state.ChallengeID, state.UserID, result.StepGoalPoints, result.LastStepDay); err != nil {
		return false, fmt.Errorf("persist reconciled score for %s: %w", state.UserID, err)
	}
	*state = replay
	return true, nil
}

// Challenge replays every participant of a challenge. Individual failures
// are logged and counted; they never abort the rest of the pass.
func Challenge(ctx context.Context, db shared.Database, window *types.ChallengeWindow, today daykey.Key, logger *slog.Logger) Stats {
	var stats Stats

	participants, err := db.ListParticipants(ctx, window.ChallengeID)
	if err != nil {
		logger.Error("Failed to list participants", "challenge_id", window.ChallengeID, "error", err)
		stats.Failed++
		return stats
	}

	for _, p := range participants {
		stats.Participants++
		corrected, err := Participant(ctx, db, p, window, today)
		if err != nil {
			logger.Error("Reconciliation failed for participant",
				"challenge_id", window.ChallengeID, "user_id", p.UserID, "error", err)
			stats.Failed++
			continue
		}
		if corrected {
			logger.Info("Corrected drifted step score",
				"challenge_id", window.ChallengeID, "user_id", p.UserID,
				"step_goal_points", p.StepGoalPoints)
			stats.Corrected++
		}
	}
	return stats
}
