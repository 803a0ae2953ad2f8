package scoring

import (
	"context"
	"math"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// HistoryReader is the slice of the ledger the weight resolver needs.
type HistoryReader interface {
	GetHistoryEntry(ctx context.Context, userID string, day daykey.Key) (*types.HistoryEntry, error)
	MostRecentWeight(ctx context.Context, userID string) (*float64, error)
}

// WeightLossPoints converts a starting/current weight pair into points: one
// point per whole percent of body weight lost, rounded half-up. Weight gain
// scores zero, never negative. A nil starting weight means the baseline is
// unconfirmed and scores zero.
func WeightLossPoints(startingWeight *float64, currentWeight float64) int {
	if startingWeight == nil || *startingWeight <= 0 {
		return 0
	}

	percentLost := (*startingWeight - currentWeight) / *startingWeight * 100
	if percentLost <= 0 {
		return 0
	}

	// Round half-up: 5.5% -> 6, 3.25% -> 3.
	if math.Mod(percentLost, 1) >= 0.5 {
		return int(math.Ceil(percentLost))
	}
	return int(math.Floor(percentLost))
}

// ResolveCurrentWeight picks the most authoritative known weight for a
// participant, in order: a manual ledger entry for today, the cached
// LastWeight, the latest weighted ledger entry, and finally the starting
// weight itself (0% loss). Returns nil when no weight is known at all.
func ResolveCurrentWeight(ctx context.Context, history HistoryReader, state *types.ScoringState, today daykey.Key) (*float64, error) {
	entry, err := history.GetHistoryEntry(ctx, state.UserID, today)
	if err != nil && !isAbsent(err) {
		return nil, err
	}
	if entry != nil && entry.Source == types.SourceManual && entry.Weight != nil {
		return entry.Weight, nil
	}

	if state.LastWeight != nil {
		return state.LastWeight, nil
	}

	recent, err := history.MostRecentWeight(ctx, state.UserID)
	if err != nil && !isAbsent(err) {
		return nil, err
	}
	if recent != nil {
		return recent, nil
	}

	return state.StartingWeight, nil
}

// ApplyWeightScore recomputes the participant's weight-loss points from the
// most authoritative current weight and folds the result into the state.
// Returns whether any stored field changed.
func ApplyWeightScore(ctx context.Context, history HistoryReader, state *types.ScoringState, today daykey.Key) (bool, error) {
	current, err := ResolveCurrentWeight(ctx, history, state, today)
	if err != nil {
		return false, err
	}

	points := 0
	if current != nil {
		points = WeightLossPoints(state.StartingWeight, *current)
	}

	changed := points != state.WeightLossPoints
	state.WeightLossPoints = points
	RecomputeTotal(state)
	return changed, nil
}

// isAbsent treats a missing ledger row as "no data", not a failure.
func isAbsent(err error) bool {
	return shared.IsNotFound(err)
}
