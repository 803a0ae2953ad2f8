// Package database adapts Firestore to the shared.Database interface.
//
// The scoring store is shared by live sync requests and scheduled jobs with
// no in-process lock, so every mutation here is either an idempotent
// per-key upsert or a transaction; nothing does an unguarded
// read-modify-write.
package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/ledger"
	"github.com/dbop14/FitApp-sub000/pkg/domain/scoring"
	storage "github.com/dbop14/FitApp-sub000/pkg/storage/firestore"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore.
// It wraps our typed storage client.
type FirestoreAdapter struct {
	Client  *firestore.Client
	storage *storage.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		Client:  client,
		storage: storage.NewClient(client),
	}
}

// runTxn executes fn in a Firestore transaction, retrying contention aborts
// with backoff instead of surfacing them to the caller.
func (a *FirestoreAdapter) runTxn(ctx context.Context, fn func(context.Context, *firestore.Transaction) error) error {
	return retry.Do(
		func() error {
			return a.Client.RunTransaction(ctx, fn)
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.RetryIf(func(err error) bool {
			return status.Code(err) == codes.Aborted
		}),
		retry.LastErrorOnly(true),
	)
}

// --- Users ---

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	u, err := a.storage.Users().Doc(id).Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("user %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Users().Doc(id).Update(ctx, data)
}

// --- History ledger ---

// UpsertHistory merges one day of telemetry into the ledger under the
// source-precedence rules: steps always overwrite; a manual weight can
// never be clobbered by a device or aggregate sync. The merge runs in a
// transaction so concurrent writers for the same (user, day) serialize,
// and re-applying the same mutation is a no-op.
func (a *FirestoreAdapter) UpsertHistory(ctx context.Context, userID string, mut types.HistoryMutation) (*types.HistoryEntry, error) {
	if err := ledger.Validate(mut); err != nil {
		return nil, err
	}

	ref := a.storage.UserHistory(userID).Doc(string(mut.Day))
	var merged *types.HistoryEntry

	err := a.runTxn(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var existing *types.HistoryEntry
		snap, err := tx.Get(ref.Ref)
		if err != nil && !storage.IsNotFound(err) {
			return err
		}
		if snap != nil && snap.Exists() {
			existing = ref.FromFirestore(snap.Data())
		}

		merged = ledger.Merge(existing, userID, mut, time.Now().UTC())
		return tx.Set(ref.Ref, ref.ToFirestore(merged), firestore.MergeAll)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert history %s/%s: %w", userID, mut.Day, err)
	}
	return merged, nil
}

func (a *FirestoreAdapter) GetHistoryEntry(ctx context.Context, userID string, day daykey.Key) (*types.HistoryEntry, error) {
	entry, err := a.storage.UserHistory(userID).Doc(string(day)).Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("history %s/%s: %w", userID, day, shared.ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}

// QueryHistory returns ledger rows in [from, to], ascending by day.
func (a *FirestoreAdapter) QueryHistory(ctx context.Context, userID string, from, to daykey.Key) ([]*types.HistoryEntry, error) {
	coll := a.storage.UserHistory(userID)
	q := coll.Ref.
		Where("day", ">=", string(from)).
		Where("day", "<=", string(to)).
		OrderBy("day", firestore.Asc)
	return coll.Query(ctx, q)
}

// MostRecentWeight returns the weight of the latest ledger row, by day,
// that carries one. Weight is a sparse field, so the scan walks days
// newest-first in pages rather than filtering on a weight inequality
// (Firestore would then force weight as the leading sort key and the
// query would pick the smallest weight instead of the latest day).
func (a *FirestoreAdapter) MostRecentWeight(ctx context.Context, userID string) (*float64, error) {
	coll := a.storage.UserHistory(userID)
	const pageSize = 50
	var cursor daykey.Key
	for {
		q := coll.Ref.OrderBy("day", firestore.Desc).Limit(pageSize)
		if !cursor.IsZero() {
			q = q.StartAfter(string(cursor))
		}
		entries, err := coll.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		if w := firstWeight(entries); w != nil {
			return w, nil
		}
		if len(entries) < pageSize {
			return nil, nil
		}
		cursor = entries[len(entries)-1].Day
	}
}

// firstWeight picks the first positive weight from a page of ledger rows
// already ordered newest-first.
func firstWeight(entries []*types.HistoryEntry) *float64 {
	for _, e := range entries {
		if e.Weight != nil && *e.Weight > 0 {
			return e.Weight
		}
	}
	return nil
}

// --- Challenges ---

func (a *FirestoreAdapter) GetChallenge(ctx context.Context, id string) (*types.ChallengeWindow, error) {
	w, err := a.storage.Challenges().Doc(id).Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("challenge %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return w, nil
}

// ListActiveChallenges returns challenges whose (lookback-stretched) window
// contains today. The end-day filter happens client-side because end_day is
// empty for open-ended challenges.
func (a *FirestoreAdapter) ListActiveChallenges(ctx context.Context, today daykey.Key, lookbackDays int) ([]*types.ChallengeWindow, error) {
	coll := a.storage.Challenges()
	q := coll.Ref.Where("start_day", "<=", string(today))
	all, err := coll.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	var active []*types.ChallengeWindow
	for _, w := range all {
		if w.ActiveOn(today, lookbackDays) {
			active = append(active, w)
		}
	}
	return active, nil
}

// --- Participants ---

func (a *FirestoreAdapter) GetParticipant(ctx context.Context, challengeID, userID string) (*types.ScoringState, error) {
	s, err := a.storage.Participants(challengeID).Doc(userID).Get(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
		}
		return nil, err
	}
	return s, nil
}

func (a *FirestoreAdapter) CreateParticipant(ctx context.Context, state *types.ScoringState) error {
	state.UpdatedAt = time.Now().UTC()
	return a.storage.Participants(state.ChallengeID).Doc(state.UserID).Set(ctx, state)
}

func (a *FirestoreAdapter) DeleteParticipant(ctx context.Context, challengeID, userID string) error {
	return a.storage.Participants(challengeID).Doc(userID).Delete(ctx)
}

func (a *FirestoreAdapter) ListParticipants(ctx context.Context, challengeID string) ([]*types.ScoringState, error) {
	return a.storage.Participants(challengeID).All(ctx)
}

// ListUserParticipations finds every challenge the user has joined via a
// collection-group query over the participant sub-collections.
func (a *FirestoreAdapter) ListUserParticipations(ctx context.Context, userID string) ([]*types.ScoringState, error) {
	q := a.Client.CollectionGroup(shared.CollectionParticipants).Where("user_id", "==", userID)
	coll := a.storage.Participants("-") // converter holder; ref unused for group queries
	return coll.Query(ctx, q)
}

func (a *FirestoreAdapter) UpdateParticipant(ctx context.Context, challengeID, userID string, data map[string]interface{}) error {
	data["updated_at"] = time.Now().UTC()
	return a.storage.Participants(challengeID).Doc(userID).Update(ctx, data)
}

// AwardStepPoint records a step-count observation and awards at most one
// step-goal point per calendar day. The eligibility check and the increment
// run in one transaction: if a concurrent writer awarded for the same day
// first, the re-read inside the transaction sees it and this call becomes a
// progress-only update.
func (a *FirestoreAdapter) AwardStepPoint(ctx context.Context, challengeID, userID string, day daykey.Key, steps, stepGoal int) (*types.ScoringState, bool, error) {
	ref := a.storage.Participants(challengeID).Doc(userID)
	var (
		state   *types.ScoringState
		awarded bool
	)

	err := a.runTxn(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref.Ref)
		if err != nil {
			if storage.IsNotFound(err) {
				return fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
			}
			return err
		}

		state = ref.FromFirestore(snap.Data())
		awarded = scoring.EvaluateStepGoal(state, steps, day, stepGoal)
		state.UpdatedAt = time.Now().UTC()
		return tx.Set(ref.Ref, ref.ToFirestore(state), firestore.MergeAll)
	})
	if err != nil {
		return nil, false, err
	}
	return state, awarded, nil
}

// ReplaceStepScore writes the reconciled step-goal fields in one document
// update so the total invariant can never be observed broken.
func (a *FirestoreAdapter) ReplaceStepScore(ctx context.Context, challengeID, userID string, points int, lastStepDay daykey.Key) error {
	ref := a.storage.Participants(challengeID).Doc(userID)
	return a.runTxn(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref.Ref)
		if err != nil {
			if storage.IsNotFound(err) {
				return fmt.Errorf("participant %s/%s: %w", challengeID, userID, shared.ErrNotFound)
			}
			return err
		}

		state := ref.FromFirestore(snap.Data())
		state.StepGoalPoints = points
		if !lastStepDay.IsZero() {
			state.LastStepDay = lastStepDay
			if state.LastStepPointDay.Before(lastStepDay) {
				state.LastStepPointDay = lastStepDay
			}
		}
		state.TotalPoints = state.StepGoalPoints + state.WeightLossPoints
		state.UpdatedAt = time.Now().UTC()
		return tx.Set(ref.Ref, ref.ToFirestore(state), firestore.MergeAll)
	})
}

// --- Executions ---

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return a.storage.Executions().Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Executions().Doc(id).Update(ctx, data)
}
