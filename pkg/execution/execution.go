// Package execution writes the audit record for each function invocation.
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// ExecutionOptions carry optional metadata for the execution record.
type ExecutionOptions struct {
	UserID      string
	TriggerType string
}

// LogStart creates a new execution record and returns its ID.
func LogStart(ctx context.Context, db shared.Database, serviceName string, opts ExecutionOptions) (string, error) {
	id := uuid.NewString()
	record := &types.ExecutionRecord{
		ExecutionID: id,
		Service:     serviceName,
		UserID:      opts.UserID,
		TriggerType: opts.TriggerType,
		Status:      types.StatusStarted,
		StartedAt:   time.Now().UTC(),
	}
	if err := db.SetExecution(ctx, record); err != nil {
		return id, err
	}
	return id, nil
}

// LogSuccess marks the execution finished with optional outputs.
func LogSuccess(ctx context.Context, db shared.Database, id string, outputs interface{}) error {
	return db.UpdateExecution(ctx, id, map[string]interface{}{
		"status":      string(types.StatusSuccess),
		"outputs":     normalizeOutputs(outputs),
		"finished_at": time.Now().UTC(),
	})
}

// LogFailure marks the execution failed, preserving any partial outputs.
func LogFailure(ctx context.Context, db shared.Database, id string, cause error, outputs interface{}) error {
	data := map[string]interface{}{
		"status":      string(types.StatusFailure),
		"finished_at": time.Now().UTC(),
	}
	if cause != nil {
		data["error"] = cause.Error()
	}
	if outputs != nil {
		data["outputs"] = normalizeOutputs(outputs)
	}
	return db.UpdateExecution(ctx, id, data)
}

func normalizeOutputs(outputs interface{}) map[string]interface{} {
	if outputs == nil {
		return nil
	}
	if m, ok := outputs.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"result": outputs}
}
