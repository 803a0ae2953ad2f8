package scoring

import (
	"context"
	"fmt"
	"testing"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

func weightPtr(f float64) *float64 { return &f }

// fakeHistory is a minimal HistoryReader for resolver tests.
type fakeHistory struct {
	entries map[daykey.Key]*types.HistoryEntry
	recent  *float64
}

func (f *fakeHistory) GetHistoryEntry(ctx context.Context, userID string, day daykey.Key) (*types.HistoryEntry, error) {
	e, ok := f.entries[day]
	if !ok {
		return nil, fmt.Errorf("history %s/%s: %w", userID, day, shared.ErrNotFound)
	}
	return e, nil
}

func (f *fakeHistory) MostRecentWeight(ctx context.Context, userID string) (*float64, error) {
	return f.recent, nil
}

func TestWeightLossPoints(t *testing.T) {
	tests := []struct {
		name     string
		starting float64
		current  float64
		want     int
	}{
		{"three percent", 200, 194, 3},
		{"quarter rounds down", 200, 193.5, 3}, // 3.25%
		{"five percent", 200, 190, 5},
		{"half rounds up", 200, 189, 6}, // 5.5%
		{"half percent rounds up to one", 200, 199, 1},
		{"four and a half rounds up", 200, 191, 5},
		{"gain scores zero", 200, 205, 0},
		{"no change", 200, 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightLossPoints(weightPtr(tt.starting), tt.current)
			if got != tt.want {
				t.Errorf("WeightLossPoints(%v, %v) = %d, want %d", tt.starting, tt.current, got, tt.want)
			}
		})
	}
}

func TestWeightLossPoints_UnconfirmedBaseline(t *testing.T) {
	if got := WeightLossPoints(nil, 180); got != 0 {
		t.Errorf("Nil starting weight scored %d", got)
	}
	if got := WeightLossPoints(weightPtr(0), 180); got != 0 {
		t.Errorf("Zero starting weight scored %d", got)
	}
}

func TestResolveCurrentWeight_ManualTodayWins(t *testing.T) {
	today := daykey.Key("2026-02-14")
	history := &fakeHistory{
		entries: map[daykey.Key]*types.HistoryEntry{
			today: {UserID: "u1", Day: today, Weight: weightPtr(78.5), Source: types.SourceManual},
		},
	}
	state := &types.ScoringState{UserID: "u1", LastWeight: weightPtr(85.0)}

	got, err := ResolveCurrentWeight(context.Background(), history, state, today)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || *got != 78.5 {
		t.Errorf("Resolved %v, want manual entry 78.5", got)
	}
}

func TestResolveCurrentWeight_DeviceWeightTodayDoesNotPreemptCache(t *testing.T) {
	today := daykey.Key("2026-02-14")
	history := &fakeHistory{
		entries: map[daykey.Key]*types.HistoryEntry{
			today: {UserID: "u1", Day: today, Weight: weightPtr(90.0), Source: types.SourceDeviceSync},
		},
	}
	state := &types.ScoringState{UserID: "u1", LastWeight: weightPtr(85.0)}

	got, err := ResolveCurrentWeight(context.Background(), history, state, today)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || *got != 85.0 {
		t.Errorf("Resolved %v, want cached 85.0", got)
	}
}

func TestResolveCurrentWeight_FallbackChain(t *testing.T) {
	today := daykey.Key("2026-02-14")

	// No manual entry today: cached LastWeight wins.
	state := &types.ScoringState{UserID: "u1", LastWeight: weightPtr(85.0)}
	got, err := ResolveCurrentWeight(context.Background(), &fakeHistory{}, state, today)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || *got != 85.0 {
		t.Errorf("Resolved %v, want cached 85.0", got)
	}

	// No cache: latest weighted ledger row wins.
	state = &types.ScoringState{UserID: "u1"}
	got, err = ResolveCurrentWeight(context.Background(), &fakeHistory{recent: weightPtr(83.0)}, state, today)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || *got != 83.0 {
		t.Errorf("Resolved %v, want ledger 83.0", got)
	}

	// Nothing but the baseline: 0% loss, not an error.
	state = &types.ScoringState{UserID: "u1", StartingWeight: weightPtr(200)}
	got, err = ResolveCurrentWeight(context.Background(), &fakeHistory{}, state, today)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil || *got != 200 {
		t.Errorf("Resolved %v, want starting weight", got)
	}
}

func TestResolveCurrentWeight_NothingKnown(t *testing.T) {
	state := &types.ScoringState{UserID: "u1"}

	got, err := ResolveCurrentWeight(context.Background(), &fakeHistory{}, state, "2026-02-14")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Resolved %v from an empty world", *got)
	}
}

func TestApplyWeightScore(t *testing.T) {
	state := &types.ScoringState{
		UserID:         "u1",
		StartingWeight: weightPtr(200),
		LastWeight:     weightPtr(189),
		StepGoalPoints: 2,
	}

	changed, err := ApplyWeightScore(context.Background(), &fakeHistory{}, state, "2026-02-14")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !changed {
		t.Error("Expected a change from 0 points")
	}
	if state.WeightLossPoints != 6 {
		t.Errorf("WeightLossPoints = %d, want 6", state.WeightLossPoints)
	}
	if state.TotalPoints != 8 {
		t.Errorf("TotalPoints = %d, want 8", state.TotalPoints)
	}

	// Re-applying with nothing new is a no-op.
	changed, err = ApplyWeightScore(context.Background(), &fakeHistory{}, state, "2026-02-14")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if changed {
		t.Error("Unchanged inputs reported a change")
	}
}
