// Package reconciler is the hourly drift-correction function: it replays
// every active challenge's step-goal scores from the history ledger.
package reconciler

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/dbop14/FitApp-sub000/pkg/bootstrap"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/framework"
	"github.com/dbop14/FitApp-sub000/pkg/reconcile"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("ReconcileChallenges", ReconcileChallenges)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

// ReconcileChallenges is the entry point, triggered by Cloud Scheduler.
func ReconcileChallenges(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("reconciler", svc, reconcileHandler)(ctx, e)
}

func reconcileHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	cfg := fwCtx.Service.Config
	today := daykey.Today(cfg.DefaultTimezone)

	windows, err := fwCtx.Service.DB.ListActiveChallenges(ctx, today, cfg.ReconcileLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("list active challenges: %w", err)
	}

	fwCtx.Logger.Info("Starting reconciliation pass", "challenges", len(windows), "day", today)

	total := reconcile.Stats{}
	for _, w := range windows {
		stats := reconcile.Challenge(ctx, fwCtx.Service.DB, w, today, fwCtx.Logger)
		total.Participants += stats.Participants
		total.Corrected += stats.Corrected
		total.Failed += stats.Failed
	}

	fwCtx.Logger.Info("Reconciliation pass complete",
		"participants", total.Participants, "corrected", total.Corrected, "failed", total.Failed)

	return map[string]interface{}{
		"challenges":   len(windows),
		"participants": total.Participants,
		"corrected":    total.Corrected,
		"failed":       total.Failed,
	}, nil
}
