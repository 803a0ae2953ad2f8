package telemetrysync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	infrapubsub "github.com/dbop14/FitApp-sub000/pkg/infrastructure/pubsub"
	"github.com/dbop14/FitApp-sub000/pkg/participant"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Processor applies one live telemetry push.
type Processor struct {
	DB       shared.Database
	Pub      shared.Publisher
	Notifier shared.NotificationService // optional, best-effort
	Logger   *slog.Logger
	TZ       *time.Location
}

// ProcessResult summarizes scoring across the user's challenges.
type ProcessResult struct {
	Day              daykey.Key
	ChallengesScored int
	PointsAwarded    int
}

// Process writes today's telemetry into the ledger and re-scores every
// active challenge the user participates in. The ledger write comes first:
// even if scoring fails, the raw data is durable and the next
// reconciliation run will heal the scores.
func (p *Processor) Process(ctx context.Context, payload *SyncPayload) (*ProcessResult, error) {
	user, err := p.DB.GetUser(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	loc := daykey.LoadLocation(user.Timezone, p.TZ)
	today := daykey.Today(loc)

	steps := payload.Steps
	mut := types.HistoryMutation{
		Day:    today,
		Steps:  &steps,
		Weight: payload.Weight,
		Source: types.SourceDeviceSync,
	}
	if _, err := p.DB.UpsertHistory(ctx, payload.UserID, mut); err != nil {
		return nil, fmt.Errorf("ledger upsert: %w", err)
	}

	participations, err := p.DB.ListUserParticipations(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}

	result := &ProcessResult{Day: today}
	for _, state := range participations {
		window, err := p.DB.GetChallenge(ctx, state.ChallengeID)
		if err != nil {
			p.Logger.Warn("Challenge lookup failed, skipping",
				"challenge_id", state.ChallengeID, "error", err)
			continue
		}
		if !window.ActiveOn(today, 0) {
			continue
		}

		updated, awarded, err := p.DB.AwardStepPoint(ctx, window.ChallengeID, payload.UserID, today, payload.Steps, window.StepGoal)
		if err != nil {
			p.Logger.Error("Step award failed",
				"challenge_id", window.ChallengeID, "error", err)
			continue
		}
		if awarded {
			result.PointsAwarded++
		}

		if payload.Weight != nil {
			if err := participant.ApplyWeighIn(ctx, p.DB, updated, window, today, *payload.Weight); err != nil {
				p.Logger.Error("Weigh-in failed",
					"challenge_id", window.ChallengeID, "error", err)
			}
		} else if _, err := participant.RefreshWeightScore(ctx, p.DB, updated, today); err != nil {
			p.Logger.Error("Weight score refresh failed",
				"challenge_id", window.ChallengeID, "error", err)
		}

		result.ChallengesScored++
		p.publishScoreChanged(ctx, updated, awarded, today)
		if awarded {
			p.notifyPointAwarded(ctx, user, window, updated)
		}
	}

	return result, nil
}

// publishScoreChanged emits the score-changed event consumed by the
// notification and chat collaborators. Fire and forget.
func (p *Processor) publishScoreChanged(ctx context.Context, state *types.ScoringState, awarded bool, day daykey.Key) {
	if p.Pub == nil {
		return
	}
	e, err := infrapubsub.NewCloudEvent(infrapubsub.EventSourceScoring, infrapubsub.EventTypeScoreChanged, infrapubsub.ScoreChangedPayload{
		ChallengeID:      state.ChallengeID,
		UserID:           state.UserID,
		StepGoalPoints:   state.StepGoalPoints,
		WeightLossPoints: state.WeightLossPoints,
		TotalPoints:      state.TotalPoints,
		StepPointAwarded: awarded,
		Day:              string(day),
	})
	if err != nil {
		p.Logger.Warn("Failed to build score-changed event", "error", err)
		return
	}
	if _, err := p.Pub.PublishCloudEvent(ctx, shared.TopicScoreChanged, e); err != nil {
		p.Logger.Warn("Failed to publish score-changed event", "error", err)
	}
}

// notifyPointAwarded pushes a step-goal congratulation. Best-effort.
func (p *Processor) notifyPointAwarded(ctx context.Context, user *types.UserRecord, window *types.ChallengeWindow, state *types.ScoringState) {
	if p.Notifier == nil {
		return
	}
	title := "Step goal hit!"
	body := fmt.Sprintf("You earned a point in %s. Total: %d", window.Name, state.TotalPoints)
	if err := p.Notifier.SendPushNotification(ctx, user.UserID, title, body, user.FCMTokens, nil); err != nil {
		p.Logger.Warn("Push notification failed", "user_id", user.UserID, "error", err)
	}
}
