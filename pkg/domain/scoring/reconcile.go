package scoring

import (
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// ReconcileResult is the step-goal score recomputed from the ledger.
type ReconcileResult struct {
	StepGoalPoints int
	LastStepDay    daykey.Key // zero when no day qualified
	Changed        bool
}

// Reconcile replays the participant's step-goal score from ledger entries,
// discarding whatever was cached. This is the drift-correction mechanism:
// any race or mis-edit that left the cached score inconsistent with the
// ledger heals on the next replay. Replays are idempotent and never touch
// the weight-loss side.
//
// entries must cover [window.StartDay, window.LastScoreDay(today)]; rows
// outside that range are ignored, so callers may pass a wider query result.
func Reconcile(state *types.ScoringState, window *types.ChallengeWindow, entries []*types.HistoryEntry, today daykey.Key) ReconcileResult {
	last := window.LastScoreDay(today)

	count := 0
	var lastQualifying daykey.Key
	seen := make(map[daykey.Key]bool)
	for _, e := range entries {
		if e.Day.Before(window.StartDay) || e.Day.After(last) {
			continue
		}
		if seen[e.Day] {
			continue // one entry per day by invariant, but replay stays safe
		}
		seen[e.Day] = true
		if window.StepGoal > 0 && e.Steps >= window.StepGoal {
			count++
			if e.Day.After(lastQualifying) {
				lastQualifying = e.Day
			}
		}
	}

	result := ReconcileResult{StepGoalPoints: count, LastStepDay: lastQualifying}
	result.Changed = state.StepGoalPoints != count ||
		(!lastQualifying.IsZero() && state.LastStepDay != lastQualifying)

	state.StepGoalPoints = count
	if !lastQualifying.IsZero() {
		state.LastStepDay = lastQualifying
		if state.LastStepPointDay.Before(lastQualifying) {
			state.LastStepPointDay = lastQualifying
		}
	}
	RecomputeTotal(state)
	return result
}
