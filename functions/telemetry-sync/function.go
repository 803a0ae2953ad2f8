// Package telemetrysync handles live per-user telemetry pushes from the
// mobile app: write the day into the ledger, award step-goal points, and
// refresh the weight-loss score for every challenge the user is in.
package telemetrysync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/dbop14/FitApp-sub000/pkg/bootstrap"
	"github.com/dbop14/FitApp-sub000/pkg/framework"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("SyncTelemetry", SyncTelemetry)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

// SyncTelemetry is the entry point.
func SyncTelemetry(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("telemetry-sync", svc, syncHandler)(ctx, e)
}

// SyncPayload is the live telemetry push for one user.
type SyncPayload struct {
	UserID string   `json:"user_id"`
	Steps  int      `json:"steps"`
	Weight *float64 `json:"weight,omitempty"`
}

func syncHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	payload, err := decodePayload(e)
	if err != nil {
		return nil, err
	}

	proc := &Processor{
		DB:       fwCtx.Service.DB,
		Pub:      fwCtx.Service.Pub,
		Notifier: fwCtx.Service.Notify,
		Logger:   fwCtx.Logger,
		TZ:       fwCtx.Service.Config.DefaultTimezone,
	}
	result, err := proc.Process(ctx, payload)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"challenges_scored": result.ChallengesScored,
		"points_awarded":    result.PointsAwarded,
	}, nil
}

// decodePayload accepts both a bare JSON payload and a Pub/Sub envelope.
func decodePayload(e cloudevents.Event) (*SyncPayload, error) {
	var envelope framework.PubSubMessage
	data := e.Data()
	if err := e.DataAs(&envelope); err == nil && len(envelope.Message.Data) > 0 {
		data = envelope.Message.Data
	}

	var payload SyncPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode sync payload: %w", err)
	}
	if payload.UserID == "" {
		return nil, fmt.Errorf("sync payload missing user_id")
	}
	return &payload, nil
}
