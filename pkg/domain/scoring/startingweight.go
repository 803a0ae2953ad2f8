package scoring

import (
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// FirstWeighInDay returns the first day on/after the challenge start that
// falls on the configured weigh-in weekday.
func FirstWeighInDay(window *types.ChallengeWindow) daykey.Key {
	day := window.StartDay
	for i := 0; i < 7; i++ {
		if day.Weekday() == window.WeighInWeekday {
			return day
		}
		day = day.AddDays(1)
	}
	return window.StartDay
}

// ConfirmStartingWeight runs the one-shot Unconfirmed -> Confirmed
// transition for a weight logged on day. The baseline is fixed on the first
// weigh-in weekday on/after the challenge start; as a safety net, a weight
// logged after the start but before any weigh-in weekday has occurred also
// confirms. Once confirmed the starting weight is immutable - later logs
// only ever move LastWeight. Returns whether the transition fired.
func ConfirmStartingWeight(state *types.ScoringState, window *types.ChallengeWindow, day daykey.Key, weight float64) bool {
	if state.StartingWeightConfirmed() {
		return false
	}
	if weight <= 0 {
		return false
	}
	if day.Before(window.StartDay) {
		return false
	}

	if day.Weekday() != window.WeighInWeekday && !day.Before(FirstWeighInDay(window)) {
		// Past the first weigh-in day on a non-weigh-in weekday: hold the
		// baseline for the next weigh-in.
		return false
	}

	w := weight
	state.StartingWeight = &w
	return true
}
