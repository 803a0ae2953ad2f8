package telemetrysync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	infrapubsub "github.com/dbop14/FitApp-sub000/pkg/infrastructure/pubsub"
	"github.com/dbop14/FitApp-sub000/pkg/testing/mocks"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func weightPtr(f float64) *float64 { return &f }

// seedWorld wires one user in one open-ended challenge so "today" is always
// inside the scoring window regardless of when the test runs.
func seedWorld() (*mocks.MemDatabase, daykey.Key) {
	db := mocks.NewMemDatabase()
	db.Users["u1"] = &types.UserRecord{UserID: "u1", DisplayName: "Alice", Timezone: "UTC"}
	db.Challenges["c1"] = &types.ChallengeWindow{
		ChallengeID:    "c1",
		Name:           "Steps Forever",
		StepGoal:       10000,
		StartDay:       "2020-01-01",
		WeighInWeekday: time.Monday,
	}
	db.Participants["c1/u1"] = &types.ScoringState{ChallengeID: "c1", UserID: "u1", DisplayName: "Alice"}
	return db, daykey.Today(time.UTC)
}

func TestProcess_AwardsStepPoint(t *testing.T) {
	db, today := seedWorld()
	pub := &mocks.MockPublisher{}
	notifier := &mocks.MockNotifier{}
	proc := &Processor{DB: db, Pub: pub, Notifier: notifier, Logger: discardLogger(), TZ: time.UTC}

	result, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 12000})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.PointsAwarded != 1 || result.ChallengesScored != 1 {
		t.Errorf("Result = %+v", result)
	}

	// Ledger row written before scoring.
	entry, err := db.GetHistoryEntry(context.Background(), "u1", today)
	if err != nil {
		t.Fatalf("Ledger row missing: %v", err)
	}
	if entry.Steps != 12000 || entry.Source != types.SourceDeviceSync {
		t.Errorf("Ledger entry = %+v", entry)
	}

	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if stored.StepGoalPoints != 1 || stored.TotalPoints != 1 {
		t.Errorf("Score = %+v", stored)
	}

	if len(pub.Published) != 1 {
		t.Fatalf("Published %d events, want 1", len(pub.Published))
	}
	var payload infrapubsub.ScoreChangedPayload
	if err := json.Unmarshal(pub.Published[0].Data(), &payload); err != nil {
		t.Fatalf("Bad event payload: %v", err)
	}
	if !payload.StepPointAwarded || payload.TotalPoints != 1 {
		t.Errorf("Event payload = %+v", payload)
	}

	if len(notifier.Sent) != 1 {
		t.Errorf("Sent %d notifications, want 1", len(notifier.Sent))
	}
}

func TestProcess_SecondSyncSameDayNoDoubleAward(t *testing.T) {
	db, _ := seedWorld()
	proc := &Processor{DB: db, Logger: discardLogger(), TZ: time.UTC}

	if _, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 11000}); err != nil {
		t.Fatalf("First sync: %v", err)
	}
	result, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 15000})
	if err != nil {
		t.Fatalf("Second sync: %v", err)
	}

	if result.PointsAwarded != 0 {
		t.Errorf("Second sync awarded %d points", result.PointsAwarded)
	}
	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if stored.StepGoalPoints != 1 {
		t.Errorf("StepGoalPoints = %d, want 1", stored.StepGoalPoints)
	}
	if stored.LastStepCount != 15000 {
		t.Errorf("LastStepCount = %d, want 15000", stored.LastStepCount)
	}
}

func TestProcess_WeightFlowsIntoScore(t *testing.T) {
	db, _ := seedWorld()
	// Baseline already confirmed a while ago.
	db.Participants["c1/u1"].StartingWeight = weightPtr(200)
	proc := &Processor{DB: db, Logger: discardLogger(), TZ: time.UTC}

	_, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 500, Weight: weightPtr(190)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if stored.WeightLossPoints != 5 {
		t.Errorf("WeightLossPoints = %d, want 5", stored.WeightLossPoints)
	}
	if stored.LastWeight == nil || *stored.LastWeight != 190 {
		t.Errorf("LastWeight = %v", stored.LastWeight)
	}
}

func TestProcess_InactiveChallengeSkipped(t *testing.T) {
	db, _ := seedWorld()
	db.Challenges["c1"].EndDay = "2020-02-01" // long over
	proc := &Processor{DB: db, Logger: discardLogger(), TZ: time.UTC}

	result, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 12000})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ChallengesScored != 0 || result.PointsAwarded != 0 {
		t.Errorf("Finished challenge still scored: %+v", result)
	}
}

func TestProcess_UnknownUser(t *testing.T) {
	db, _ := seedWorld()
	proc := &Processor{DB: db, Logger: discardLogger(), TZ: time.UTC}

	if _, err := proc.Process(context.Background(), &SyncPayload{UserID: "ghost", Steps: 100}); err == nil {
		t.Fatal("Expected error for unknown user")
	}
}

func TestProcess_LedgerWriteFailureAbortsScoring(t *testing.T) {
	db, _ := seedWorld()
	db.FailUpsertFor = "u1"
	proc := &Processor{DB: db, Logger: discardLogger(), TZ: time.UTC}

	if _, err := proc.Process(context.Background(), &SyncPayload{UserID: "u1", Steps: 12000}); err == nil {
		t.Fatal("Expected error when the ledger write fails")
	}
	stored, _ := db.GetParticipant(context.Background(), "c1", "u1")
	if stored.StepGoalPoints != 0 {
		t.Error("Score moved despite failed ledger write")
	}
}

func TestDecodePayload(t *testing.T) {
	bare := cloudevents.NewEvent()
	bare.SetType("test")
	if err := bare.SetData(cloudevents.ApplicationJSON, map[string]interface{}{"user_id": "u1", "steps": 9000}); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	payload, err := decodePayload(bare)
	if err != nil {
		t.Fatalf("Bare payload: %v", err)
	}
	if payload.UserID != "u1" || payload.Steps != 9000 {
		t.Errorf("Decoded %+v", payload)
	}
}

func TestDecodePayload_PubSubEnvelope(t *testing.T) {
	inner, _ := json.Marshal(map[string]interface{}{"user_id": "u2", "steps": 500})
	envelope := map[string]interface{}{
		"message": map[string]interface{}{
			"data":      inner, // base64 handled by encoding/json for []byte
			"messageId": "m1",
		},
	}
	e := cloudevents.NewEvent()
	e.SetType("test")
	if err := e.SetData(cloudevents.ApplicationJSON, envelope); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	payload, err := decodePayload(e)
	if err != nil {
		t.Fatalf("Envelope payload: %v", err)
	}
	if payload.UserID != "u2" || payload.Steps != 500 {
		t.Errorf("Decoded %+v", payload)
	}
}

func TestDecodePayload_MissingUserID(t *testing.T) {
	e := cloudevents.NewEvent()
	e.SetType("test")
	_ = e.SetData(cloudevents.ApplicationJSON, map[string]interface{}{"steps": 100})

	if _, err := decodePayload(e); err == nil {
		t.Fatal("Expected error for missing user_id")
	}
}
