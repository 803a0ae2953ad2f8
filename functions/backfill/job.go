package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	gcs "github.com/dbop14/FitApp-sub000/pkg/infrastructure/storage"
	"github.com/dbop14/FitApp-sub000/pkg/integrations/fitbit"
	"github.com/dbop14/FitApp-sub000/pkg/reconcile"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// ProviderFactory builds the telemetry client for one user. Indirected so
// tests can substitute a fake provider.
type ProviderFactory func(db shared.Database, userID string) shared.TelemetryProvider

// Job runs the nightly sync-then-reconcile pass.
type Job struct {
	DB             shared.Database
	Store          shared.BlobStore
	ArtifactBucket string
	BackfillDays   int
	NewProvider    ProviderFactory
	Logger         *slog.Logger
}

// Result is the per-run summary, one row per attempted user.
type Result struct {
	UsersProcessed int      `json:"users_processed"`
	UsersFailed    int      `json:"users_failed"`
	DaysWritten    int      `json:"days_written"`
	FailedUsers    []string `json:"failed_users,omitempty"`
}

// FitbitProvider is the production ProviderFactory.
func FitbitProvider(db shared.Database, userID string) shared.TelemetryProvider {
	return fitbit.NewForUser(db, userID)
}

// Execute syncs the trailing window for every user in a currently-active
// challenge, then reconciles each of their challenges. One user's provider
// or ledger failure never aborts the others: log, count, continue.
func (j *Job) Execute(ctx context.Context, today daykey.Key) (*Result, error) {
	windows, err := j.DB.ListActiveChallenges(ctx, today, 0)
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}

	// A user in several challenges syncs once.
	userChallenges := make(map[string][]*types.ChallengeWindow)
	for _, w := range windows {
		participants, err := j.DB.ListParticipants(ctx, w.ChallengeID)
		if err != nil {
			j.Logger.Error("Failed to list participants", "challenge_id", w.ChallengeID, "error", err)
			continue
		}
		for _, p := range participants {
			userChallenges[p.UserID] = append(userChallenges[p.UserID], w)
		}
	}

	userIDs := make([]string, 0, len(userChallenges))
	for id := range userChallenges {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	result := &Result{}
	for _, userID := range userIDs {
		written, err := j.syncUser(ctx, userID, today)
		if err != nil {
			j.Logger.Error("Backfill failed for user, skipping", "user_id", userID, "error", err)
			result.UsersFailed++
			result.FailedUsers = append(result.FailedUsers, userID)
			continue
		}
		result.UsersProcessed++
		result.DaysWritten += written

		for _, w := range userChallenges[userID] {
			state, err := j.DB.GetParticipant(ctx, w.ChallengeID, userID)
			if err != nil {
				j.Logger.Error("Participant lookup failed after sync",
					"challenge_id", w.ChallengeID, "user_id", userID, "error", err)
				continue
			}
			if _, err := reconcile.Participant(ctx, j.DB, state, w, today); err != nil {
				j.Logger.Error("Post-sync reconciliation failed",
					"challenge_id", w.ChallengeID, "user_id", userID, "error", err)
			}
		}
	}

	return result, nil
}

// syncUser pulls the trailing window from the provider and writes every day
// explicitly into the ledger, zero-step days included, so absence of a row
// keeps meaning "no data" rather than "no steps".
func (j *Job) syncUser(ctx context.Context, userID string, today daykey.Key) (int, error) {
	user, err := j.DB.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}
	if !user.FitbitEnabled() {
		j.Logger.Debug("User has no telemetry provider, skipping sync", "user_id", userID)
		return 0, nil
	}

	loc := daykey.LoadLocation(user.Timezone, nil)
	localToday := daykey.Today(loc)
	from := localToday.AddDays(-(j.BackfillDays - 1))

	provider := j.NewProvider(j.DB, userID)
	samples, raw, err := provider.FetchDailyHistory(ctx, user, from, localToday)
	if err != nil {
		var apiErr *fitbit.APIError
		if errors.As(err, &apiErr) && apiErr.AuthExpired() {
			return 0, fmt.Errorf("provider auth expired, user must reconnect: %w", err)
		}
		return 0, fmt.Errorf("provider fetch: %w", err)
	}

	j.archiveRaw(ctx, userID, localToday, raw)

	written := 0
	for _, s := range samples {
		steps := s.Steps
		mut := types.HistoryMutation{
			Day:    s.Day,
			Steps:  &steps,
			Weight: s.Weight,
			Source: types.SourceDeviceSync,
		}
		if _, err := j.DB.UpsertHistory(ctx, userID, mut); err != nil {
			return written, fmt.Errorf("ledger upsert for %s: %w", s.Day, err)
		}
		written++
	}
	return written, nil
}

// archiveRaw snapshots the provider payload for audit. Best-effort: a
// storage failure never fails the sync.
func (j *Job) archiveRaw(ctx context.Context, userID string, day daykey.Key, raw []byte) {
	if j.Store == nil || j.ArtifactBucket == "" || len(raw) == 0 {
		return
	}
	object := gcs.SnapshotObject("backfill", userID, day)
	if err := j.Store.Write(ctx, j.ArtifactBucket, object, raw); err != nil {
		j.Logger.Warn("Failed to archive provider payload", "user_id", userID, "object", object, "error", err)
	}
}
