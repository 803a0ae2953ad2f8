// Package mocks provides test doubles for the shared interfaces: a
// function-field MockDatabase for targeted expectations and an in-memory
// MemDatabase that honors the ledger merge and scoring contracts.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/ledger"
	"github.com/dbop14/FitApp-sub000/pkg/domain/scoring"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// --- Mock Publisher ---

type MockPublisher struct {
	mu        sync.Mutex
	Published []event.Event
	Err       error
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.Published = append(m.Published, e)
	return "msg-id", nil
}

// --- Mock BlobStore ---

type MockBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[bucket+"/"+object] = data
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	data, ok := m.Objects[bucket+"/"+object]
	if !ok {
		return nil, fmt.Errorf("object %s/%s: %w", bucket, object, shared.ErrNotFound)
	}
	return data, nil
}

// --- Mock NotificationService ---

type SentNotification struct {
	UserID string
	Title  string
	Body   string
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []SentNotification
	Err  error
}

func (m *MockNotifier) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentNotification{UserID: userID, Title: title, Body: body})
	return nil
}

// --- Mock TelemetryProvider ---

type MockProvider struct {
	FetchFunc func(ctx context.Context, user *types.UserRecord, from, to daykey.Key) ([]shared.DailySample, []byte, error)
}

func (m *MockProvider) FetchDailyHistory(ctx context.Context, user *types.UserRecord, from, to daykey.Key) ([]shared.DailySample, []byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, user, from, to)
	}
	return nil, nil, nil
}

// --- MemDatabase ---

// MemDatabase is an in-memory shared.Database. Ledger upserts go through
// ledger.Merge and step awards through scoring.EvaluateStepGoal, so tests
// observe the same contract the Firestore adapter implements.
type MemDatabase struct {
	mu            sync.Mutex
	Users         map[string]*types.UserRecord
	History       map[string]map[daykey.Key]*types.HistoryEntry // userID -> day -> entry
	Challenges    map[string]*types.ChallengeWindow
	Participants  map[string]*types.ScoringState // challengeID/userID -> state
	Executions    map[string]*types.ExecutionRecord
	FailUpsertFor string // userID whose ledger writes fail, for error-path tests
	FailQueryFor  string // userID whose ledger reads fail
}

func NewMemDatabase() *MemDatabase {
	return &MemDatabase{
		Users:        make(map[string]*types.UserRecord),
		History:      make(map[string]map[daykey.Key]*types.HistoryEntry),
		Challenges:   make(map[string]*types.ChallengeWindow),
		Participants: make(map[string]*types.ScoringState),
		Executions:   make(map[string]*types.ExecutionRecord),
	}
}

func participantKey(challengeID, userID string) string {
	return challengeID + "/" + userID
}

func (m *MemDatabase) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (m *MemDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	// Partial map updates are a Firestore concern; tests mutate Users directly.
	return nil
}

func (m *MemDatabase) UpsertHistory(ctx context.Context, userID string, mut types.HistoryMutation) (*types.HistoryEntry, error) {
	if err := ledger.Validate(mut); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpsertFor == userID {
		return nil, fmt.Errorf("simulated write failure for %s", userID)
	}
	days := m.History[userID]
	if days == nil {
		days = make(map[daykey.Key]*types.HistoryEntry)
		m.History[userID] = days
	}
	merged := ledger.Merge(days[mut.Day], userID, mut, time.Now().UTC())
	days[mut.Day] = merged
	copied := *merged
	return &copied, nil
}

func (m *MemDatabase) GetHistoryEntry(ctx context.Context, userID string, day daykey.Key) (*types.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.History[userID][day]
	if !ok {
		return nil, fmt.Errorf("history %s/%s: %w", userID, day, shared.ErrNotFound)
	}
	copied := *e
	return &copied, nil
}

func (m *MemDatabase) QueryHistory(ctx context.Context, userID string, from, to daykey.Key) ([]*types.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailQueryFor == userID {
		return nil, fmt.Errorf("simulated read failure for %s", userID)
	}
	var out []*types.HistoryEntry
	for day, e := range m.History[userID] {
		if day < from || day > to {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *MemDatabase) MostRecentWeight(ctx context.Context, userID string) (*float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []*types.HistoryEntry
	for _, e := range m.History[userID] {
		entries = append(entries, e)
	}
	return ledger.MostRecentWeight(entries), nil
}

func (m *MemDatabase) GetChallenge(ctx context.Context, id string) (*types.ChallengeWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Challenges[id]
	if !ok {
		return nil, fmt.Errorf("challenge %s: %w", id, shared.ErrNotFound)
	}
	copied := *w
	return &copied, nil
}

func (m *MemDatabase) ListActiveChallenges(ctx context.Context, today daykey.Key, lookbackDays int) ([]*types.ChallengeWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.ChallengeWindow
	for _, w := range m.Challenges {
		if !w.ActiveOn(today, lookbackDays) {
			continue
		}
		copied := *w
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

func (m *MemDatabase) GetParticipant(ctx context.Context, challengeID, userID string) (*types.ScoringState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Participants[participantKey(challengeID, userID)]
	if !ok {
		return nil, fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (m *MemDatabase) CreateParticipant(ctx context.Context, state *types.ScoringState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	copied.UpdatedAt = time.Now().UTC()
	m.Participants[participantKey(state.ChallengeID, state.UserID)] = &copied
	return nil
}

func (m *MemDatabase) DeleteParticipant(ctx context.Context, challengeID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Participants, participantKey(challengeID, userID))
	return nil
}

func (m *MemDatabase) ListParticipants(ctx context.Context, challengeID string) ([]*types.ScoringState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.ScoringState
	for _, s := range m.Participants {
		if s.ChallengeID == challengeID {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MemDatabase) ListUserParticipations(ctx context.Context, userID string) ([]*types.ScoringState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.ScoringState
	for _, s := range m.Participants {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

func (m *MemDatabase) UpdateParticipant(ctx context.Context, challengeID, userID string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Participants[participantKey(challengeID, userID)]
	if !ok {
		return fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
	}
	applyParticipantUpdate(s, data)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemDatabase) AwardStepPoint(ctx context.Context, challengeID, userID string, day daykey.Key, steps, stepGoal int) (*types.ScoringState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Participants[participantKey(challengeID, userID)]
	if !ok {
		return nil, false, fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
	}
	awarded := scoring.EvaluateStepGoal(s, steps, day, stepGoal)
	s.UpdatedAt = time.Now().UTC()
	copied := *s
	return &copied, awarded, nil
}

func (m *MemDatabase) ReplaceStepScore(ctx context.Context, challengeID, userID string, points int, lastStepDay daykey.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Participants[participantKey(challengeID, userID)]
	if !ok {
		return fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
	}
	s.StepGoalPoints = points
	if !lastStepDay.IsZero() {
		s.LastStepDay = lastStepDay
		if s.LastStepPointDay.Before(lastStepDay) {
			s.LastStepPointDay = lastStepDay
		}
	}
	s.TotalPoints = s.StepGoalPoints + s.WeightLossPoints
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.Executions[record.ExecutionID] = &copied
	return nil
}

func (m *MemDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return nil
}

// applyParticipantUpdate mirrors the snake_case partial updates the
// Firestore adapter accepts.
func applyParticipantUpdate(s *types.ScoringState, data map[string]interface{}) {
	for k, v := range data {
		switch k {
		case "starting_weight":
			if f, ok := v.(float64); ok {
				s.StartingWeight = &f
			}
		case "last_weight":
			if f, ok := v.(float64); ok {
				s.LastWeight = &f
			}
		case "weight_loss_points":
			if n, ok := v.(int); ok {
				s.WeightLossPoints = n
			}
		case "total_points":
			if n, ok := v.(int); ok {
				s.TotalPoints = n
			}
		case "step_goal_points":
			if n, ok := v.(int); ok {
				s.StepGoalPoints = n
			}
		case "last_step_count":
			if n, ok := v.(int); ok {
				s.LastStepCount = n
			}
		case "display_name":
			if str, ok := v.(string); ok {
				s.DisplayName = str
			}
		}
	}
}

var _ shared.Database = (*MemDatabase)(nil)
var _ shared.Publisher = (*MockPublisher)(nil)
var _ shared.BlobStore = (*MockBlobStore)(nil)
var _ shared.NotificationService = (*MockNotifier)(nil)
var _ shared.TelemetryProvider = (*MockProvider)(nil)
