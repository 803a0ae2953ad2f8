// Package backfill is the nightly sync job: pull the trailing month of
// daily telemetry for every active-challenge participant, write it into the
// history ledger, and reconcile scores from the result.
package backfill

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/dbop14/FitApp-sub000/pkg/bootstrap"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/framework"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("BackfillTelemetry", BackfillTelemetry)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

// BackfillTelemetry is the entry point, triggered nightly by Cloud Scheduler.
func BackfillTelemetry(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("backfill", svc, backfillHandler)(ctx, e)
}

func backfillHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	cfg := fwCtx.Service.Config
	job := &Job{
		DB:             fwCtx.Service.DB,
		Store:          fwCtx.Service.Store,
		ArtifactBucket: cfg.GCSArtifactBucket,
		BackfillDays:   cfg.BackfillDays,
		NewProvider:    FitbitProvider,
		Logger:         fwCtx.Logger,
	}

	today := daykey.Today(cfg.DefaultTimezone)
	result, err := job.Execute(ctx, today)
	if err != nil {
		return nil, err
	}

	fwCtx.Logger.Info("Backfill complete",
		"users_processed", result.UsersProcessed,
		"users_failed", result.UsersFailed,
		"days_written", result.DaysWritten)

	return map[string]interface{}{
		"users_processed": result.UsersProcessed,
		"users_failed":    result.UsersFailed,
		"days_written":    result.DaysWritten,
	}, nil
}
