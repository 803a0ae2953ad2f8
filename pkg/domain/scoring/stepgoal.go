// Package scoring holds the pure challenge-scoring logic: step-goal awards,
// weight-loss points, starting-weight confirmation, and the ledger replay
// that reconciles cached scores. Everything here mutates in-memory state
// only; persistence and its atomicity live behind shared.Database.
package scoring

import (
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// RecomputeTotal re-derives TotalPoints from its parts. Every mutation path
// ends here so the total invariant holds even when nothing else changed.
func RecomputeTotal(state *types.ScoringState) {
	state.TotalPoints = state.StepGoalPoints + state.WeightLossPoints
}

// StepPointEligible reports whether a step-goal point may be awarded for day.
// Idempotency is per calendar day: a point already awarded for day (or any
// later day) blocks another. Day keys, not elapsed hours - a point earned at
// 11pm must not block one at 6am the next calendar day.
func StepPointEligible(state *types.ScoringState, todaySteps int, today daykey.Key, stepGoal int) bool {
	if stepGoal <= 0 {
		// Invalid config from the challenge service; treat the goal as
		// unreachable rather than crash or award for free.
		return false
	}
	if todaySteps < stepGoal {
		return false
	}
	return state.LastStepPointDay.IsZero() || state.LastStepPointDay.Before(today)
}

// EvaluateStepGoal applies one step-count observation to the participant's
// state. The step count is recorded unconditionally for progress display;
// the point is awarded at most once per calendar day. Returns whether a
// point was awarded.
func EvaluateStepGoal(state *types.ScoringState, todaySteps int, today daykey.Key, stepGoal int) bool {
	state.LastStepCount = todaySteps

	awarded := StepPointEligible(state, todaySteps, today, stepGoal)
	if awarded {
		state.StepGoalPoints++
		state.LastStepPointDay = today
		state.LastStepDay = today
	}

	RecomputeTotal(state)
	return awarded
}
