// Package ledger defines the merge semantics of the per-user per-day
// history: how a new telemetry write combines with the stored row. The
// rules live here, outside any datastore, so every store implementation
// applies exactly the same precedence.
package ledger

import (
	"fmt"
	"time"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Validate rejects malformed mutations before they reach a store.
func Validate(mut types.HistoryMutation) error {
	if mut.Day.IsZero() {
		return shared.NewValidationError("day", "day key is required")
	}
	if !mut.Source.Valid() {
		return shared.NewValidationError("source", fmt.Sprintf("unknown source %q", mut.Source))
	}
	if mut.Weight != nil && *mut.Weight <= 0 {
		return shared.NewValidationError("weight", "must be positive")
	}
	if mut.Steps != nil && *mut.Steps < 0 {
		return shared.NewValidationError("steps", "must not be negative")
	}
	return nil
}

// Merge combines a mutation with the stored entry (nil when the row does
// not exist yet) and returns the row to store:
//
//   - steps, when provided, always overwrite;
//   - weight overwrites unless the stored weight is manual and the write is
//     not - a device sync never clobbers a manual weigh-in;
//   - re-applying the same mutation yields the same row (idempotent).
//
// existing is not modified.
func Merge(existing *types.HistoryEntry, userID string, mut types.HistoryMutation, now time.Time) *types.HistoryEntry {
	entry := &types.HistoryEntry{
		UserID: userID,
		Day:    mut.Day,
		Source: mut.Source,
	}
	if existing != nil {
		copied := *existing
		entry = &copied
	}

	if mut.Steps != nil {
		entry.Steps = *mut.Steps
	}

	if mut.Weight != nil {
		if entry.Weight == nil || entry.Source != types.SourceManual || mut.Source == types.SourceManual {
			entry.Weight = mut.Weight
			entry.Source = mut.Source
		}
	} else if entry.Weight == nil {
		// No weight on either side: the row's source follows the last writer.
		entry.Source = mut.Source
	}

	entry.UserID = userID
	entry.Day = mut.Day
	entry.UpdatedAt = now
	return entry
}

// MostRecentWeight scans entries (any order) for the latest day carrying a
// weight.
func MostRecentWeight(entries []*types.HistoryEntry) *float64 {
	var best *types.HistoryEntry
	for _, e := range entries {
		if e.Weight == nil {
			continue
		}
		if best == nil || e.Day.After(best.Day) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	return best.Weight
}
