package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/testing/mocks"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

func seedWorld(t *testing.T) (*mocks.MemDatabase, *types.ChallengeWindow) {
	t.Helper()
	db := mocks.NewMemDatabase()
	window := &types.ChallengeWindow{
		ChallengeID:    "c1",
		StepGoal:       10000,
		StartDay:       "2026-02-02",
		EndDay:         "2026-03-01",
		WeighInWeekday: time.Monday,
	}
	db.Challenges["c1"] = window
	return db, window
}

func writeSteps(t *testing.T, db *mocks.MemDatabase, userID string, day daykey.Key, steps int) {
	t.Helper()
	mut := types.HistoryMutation{Day: day, Steps: intPtr(steps), Source: types.SourceDeviceSync}
	if _, err := db.UpsertHistory(context.Background(), userID, mut); err != nil {
		t.Fatalf("Seed upsert failed: %v", err)
	}
}

func TestParticipant_CorrectsDrift(t *testing.T) {
	db, window := seedWorld(t)
	db.Participants["c1/u1"] = &types.ScoringState{
		ChallengeID: "c1", UserID: "u1",
		StepGoalPoints: 7, WeightLossPoints: 2, TotalPoints: 9,
	}
	writeSteps(t, db, "u1", "2026-02-02", 12000)
	writeSteps(t, db, "u1", "2026-02-03", 4000)
	writeSteps(t, db, "u1", "2026-02-04", 10000)

	state, _ := db.GetParticipant(context.Background(), "c1", "u1")
	corrected, err := Participant(context.Background(), db, state, window, "2026-02-05")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !corrected {
		t.Fatal("Drift not corrected")
	}
	if state.StepGoalPoints != 2 {
		t.Errorf("StepGoalPoints = %d, want 2", state.StepGoalPoints)
	}

	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if stored.StepGoalPoints != 2 {
		t.Errorf("Persisted StepGoalPoints = %d, want 2", stored.StepGoalPoints)
	}
	if stored.WeightLossPoints != 2 || stored.TotalPoints != 4 {
		t.Errorf("Weight side disturbed: %+v", stored)
	}
}

func TestParticipant_NoDriftNoWrite(t *testing.T) {
	db, window := seedWorld(t)
	db.Participants["c1/u1"] = &types.ScoringState{
		ChallengeID: "c1", UserID: "u1",
		StepGoalPoints: 1, TotalPoints: 1,
		LastStepDay: "2026-02-02", LastStepPointDay: "2026-02-02",
	}
	writeSteps(t, db, "u1", "2026-02-02", 12000)

	state, _ := db.GetParticipant(context.Background(), "c1", "u1")
	before := state.UpdatedAt

	corrected, err := Participant(context.Background(), db, state, window, "2026-02-03")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if corrected {
		t.Error("Clean state reported as corrected")
	}

	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if !stored.UpdatedAt.Equal(before) {
		t.Error("Clean state was rewritten")
	}
}

func TestChallenge_ContinuesPastFailures(t *testing.T) {
	db, window := seedWorld(t)
	db.Participants["c1/u1"] = &types.ScoringState{ChallengeID: "c1", UserID: "u1", StepGoalPoints: 5, TotalPoints: 5}
	db.Participants["c1/u2"] = &types.ScoringState{ChallengeID: "c1", UserID: "u2", StepGoalPoints: 5, TotalPoints: 5}
	writeSteps(t, db, "u1", "2026-02-02", 12000)
	writeSteps(t, db, "u2", "2026-02-02", 12000)
	db.FailQueryFor = "u1"

	stats := Challenge(context.Background(), db, window, "2026-02-03", discardLogger())

	if stats.Participants != 2 {
		t.Errorf("Participants = %d, want 2", stats.Participants)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Corrected != 1 {
		t.Errorf("Corrected = %d, want 1", stats.Corrected)
	}

	// The healthy participant still got corrected.
	stored, _ := db.GetParticipant(context.Background(), "c1", "u2")
	if stored.StepGoalPoints != 1 {
		t.Errorf("u2 StepGoalPoints = %d, want 1", stored.StepGoalPoints)
	}
}
