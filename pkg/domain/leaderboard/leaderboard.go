// Package leaderboard ranks challenge participants.
package leaderboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Entry is one ranked row of a challenge leaderboard.
type Entry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	DisplayName      string `json:"display_name"`
	StepGoalPoints   int    `json:"step_goal_points"`
	WeightLossPoints int    `json:"weight_loss_points"`
	TotalPoints      int    `json:"total_points"`
}

// Rank sorts entries by total points descending, tie-broken alphabetically
// by display name, and assigns standard competition ranks: equal totals
// share a rank and the next distinct total resumes at its position, so
// totals [10, 10, 7] rank [1, 1, 3].
func Rank(entries []Entry) []Entry {
	coll := collate.New(language.English, collate.IgnoreCase)

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return coll.CompareString(entries[i].DisplayName, entries[j].DisplayName) < 0
	})

	for i := range entries {
		if i > 0 && entries[i].TotalPoints == entries[i-1].TotalPoints {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries
}
