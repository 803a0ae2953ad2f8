// Package participant applies scoring mutations to stored participant
// state: weigh-ins, weight-score refreshes, and lifecycle (join/leave).
package participant

import (
	"context"
	"fmt"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/scoring"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Join creates the scoring state for a user entering a challenge. The
// starting weight stays unconfirmed until the first qualifying weigh-in.
func Join(ctx context.Context, db shared.Database, challengeID, userID, displayName string) (*types.ScoringState, error) {
	if _, err := db.GetParticipant(ctx, challengeID, userID); err == nil {
		return nil, shared.NewValidationError("user_id", "already participating")
	} else if !shared.IsNotFound(err) {
		return nil, err
	}

	state := &types.ScoringState{
		ChallengeID: challengeID,
		UserID:      userID,
		DisplayName: displayName,
	}
	if err := db.CreateParticipant(ctx, state); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return state, nil
}

// Leave removes the participant and their score.
func Leave(ctx context.Context, db shared.Database, challengeID, userID string) error {
	return db.DeleteParticipant(ctx, challengeID, userID)
}

// ApplyWeighIn folds a weigh-in for day into the participant: it runs the
// one-shot starting-weight confirmation, moves the cached last weight, and
// recomputes the weight-loss score. All changed fields persist in a single
// document update so the total invariant cannot be observed broken.
func ApplyWeighIn(ctx context.Context, db shared.Database, state *types.ScoringState, window *types.ChallengeWindow, day daykey.Key, weight float64) error {
	if weight <= 0 {
		return shared.NewValidationError("weight", "must be positive")
	}

	confirmed := scoring.ConfirmStartingWeight(state, window, day, weight)
	w := weight
	state.LastWeight = &w

	if _, err := scoring.ApplyWeightScore(ctx, db, state, day); err != nil {
		return fmt.Errorf("recompute weight score: %w", err)
	}

	data := map[string]interface{}{
		"last_weight":        weight,
		"weight_loss_points": state.WeightLossPoints,
		"total_points":       state.TotalPoints,
	}
	if confirmed {
		data["starting_weight"] = *state.StartingWeight
	}
	if err := db.UpdateParticipant(ctx, state.ChallengeID, state.UserID, data); err != nil {
		return fmt.Errorf("persist weigh-in: %w", err)
	}
	return nil
}

// RefreshWeightScore recomputes the weight-loss score from the most
// authoritative known weight and persists the correction when storage has
// drifted. Returns whether a correction was written.
func RefreshWeightScore(ctx context.Context, db shared.Database, state *types.ScoringState, today daykey.Key) (bool, error) {
	changed, err := scoring.ApplyWeightScore(ctx, db, state, today)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	err = db.UpdateParticipant(ctx, state.ChallengeID, state.UserID, map[string]interface{}{
		"weight_loss_points": state.WeightLossPoints,
		"total_points":       state.TotalPoints,
	})
	if err != nil {
		return false, fmt.Errorf("persist weight score: %w", err)
	}
	return true, nil
}
