package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	// Users
	GetUser(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error

	// History ledger
	UpsertHistory(ctx context.Context, userID string, mut types.HistoryMutation) (*types.HistoryEntry, error)
	GetHistoryEntry(ctx context.Context, userID string, day daykey.Key) (*types.HistoryEntry, error)
	QueryHistory(ctx context.Context, userID string, from, to daykey.Key) ([]*types.HistoryEntry, error)
	MostRecentWeight(ctx context.Context, userID string) (*float64, error)

	// Challenges (read-only; owned by challenge management)
	GetChallenge(ctx context.Context, id string) (*types.ChallengeWindow, error)

	// ListActiveChallenges returns challenges whose window contains today,
	// stretched by lookbackDays past the end day so recently finished
	// challenges stay eligible for reconciliation.
	ListActiveChallenges(ctx context.Context, today daykey.Key, lookbackDays int) ([]*types.ChallengeWindow, error)

	// Participants
	GetParticipant(ctx context.Context, challengeID, userID string) (*types.ScoringState, error)
	CreateParticipant(ctx context.Context, state *types.ScoringState) error
	DeleteParticipant(ctx context.Context, challengeID, userID string) error
	ListParticipants(ctx context.Context, challengeID string) ([]*types.ScoringState, error)
	ListUserParticipations(ctx context.Context, userID string) ([]*types.ScoringState, error)
	UpdateParticipant(ctx context.Context, challengeID, userID string, data map[string]interface{}) error

	// AwardStepPoint applies the step-goal award atomically: the
	// last_step_point_day check and the increment happen in one transaction
	// so a live sync and a scheduled job cannot double-award.
	AwardStepPoint(ctx context.Context, challengeID, userID string, day daykey.Key, steps, stepGoal int) (*types.ScoringState, bool, error)

	// ReplaceStepScore overwrites the reconciled step-goal fields in a single
	// document write, recomputing the stored total.
	ReplaceStepScore(ctx context.Context, challengeID, userID string, points int, lastStepDay daykey.Key) error

	// Executions
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

// --- Telemetry Provider Interfaces ---

// DailySample is one provider day: confirmed steps plus an optional weight.
// A zero-step sample is a confirmed zero, distinct from "no entry".
type DailySample struct {
	Day    daykey.Key
	Steps  int
	Weight *float64
}

// TelemetryProvider fetches a user's recent daily history from an upstream
// fitness service. Implementations must fail explicitly on auth or rate-limit
// errors rather than returning silent zeros. The raw payload is returned
// alongside the samples so callers can archive it.
type TelemetryProvider interface {
	FetchDailyHistory(ctx context.Context, user *types.UserRecord, from, to daykey.Key) ([]DailySample, []byte, error)
}
