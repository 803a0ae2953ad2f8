package ledger

import (
	"testing"
	"time"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

func intPtr(n int) *int       { return &n }
func fPtr(f float64) *float64 { return &f }
func day(s string) daykey.Key { return daykey.Key(s) }

var now = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mut     types.HistoryMutation
		wantErr bool
	}{
		{"valid steps", types.HistoryMutation{Day: day("2026-02-14"), Steps: intPtr(9000), Source: types.SourceDeviceSync}, false},
		{"valid weight", types.HistoryMutation{Day: day("2026-02-14"), Weight: fPtr(80.5), Source: types.SourceManual}, false},
		{"missing day", types.HistoryMutation{Steps: intPtr(100), Source: types.SourceDeviceSync}, true},
		{"unknown source", types.HistoryMutation{Day: day("2026-02-14"), Source: "csv-import"}, true},
		{"zero weight", types.HistoryMutation{Day: day("2026-02-14"), Weight: fPtr(0), Source: types.SourceManual}, true},
		{"negative steps", types.HistoryMutation{Day: day("2026-02-14"), Steps: intPtr(-1), Source: types.SourceDeviceSync}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mut)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !shared.IsValidation(err) {
				t.Errorf("Expected a validation error, got %T", err)
			}
		})
	}
}

func TestMerge_NewRow(t *testing.T) {
	mut := types.HistoryMutation{Day: day("2026-02-14"), Steps: intPtr(12000), Source: types.SourceDeviceSync}

	entry := Merge(nil, "u1", mut, now)

	if entry.UserID != "u1" || entry.Day != day("2026-02-14") {
		t.Errorf("Wrong identity: %+v", entry)
	}
	if entry.Steps != 12000 {
		t.Errorf("Steps = %d, want 12000", entry.Steps)
	}
	if entry.Weight != nil {
		t.Errorf("Weight should be nil, got %v", *entry.Weight)
	}
	if entry.Source != types.SourceDeviceSync {
		t.Errorf("Source = %s", entry.Source)
	}
}

func TestMerge_StepsAlwaysOverwrite(t *testing.T) {
	existing := &types.HistoryEntry{
		UserID: "u1", Day: day("2026-02-14"), Steps: 5000,
		Weight: fPtr(81.0), Source: types.SourceManual,
	}
	mut := types.HistoryMutation{Day: day("2026-02-14"), Steps: intPtr(11000), Source: types.SourceDeviceSync}

	entry := Merge(existing, "u1", mut, now)

	if entry.Steps != 11000 {
		t.Errorf("Steps = %d, want 11000", entry.Steps)
	}
	// Manual weight survives a steps-only device write.
	if entry.Weight == nil || *entry.Weight != 81.0 {
		t.Errorf("Manual weight lost: %+v", entry)
	}
	if entry.Source != types.SourceManual {
		t.Errorf("Source demoted to %s", entry.Source)
	}
}

func TestMerge_DeviceNeverClobbersManualWeight(t *testing.T) {
	existing := &types.HistoryEntry{
		UserID: "u1", Day: day("2026-02-14"),
		Weight: fPtr(79.5), Source: types.SourceManual,
	}
	mut := types.HistoryMutation{Day: day("2026-02-14"), Weight: fPtr(82.0), Source: types.SourceDeviceSync}

	entry := Merge(existing, "u1", mut, now)

	if *entry.Weight != 79.5 {
		t.Errorf("Device sync overwrote manual weight: %v", *entry.Weight)
	}
	if entry.Source != types.SourceManual {
		t.Errorf("Source = %s, want manual", entry.Source)
	}
}

func TestMerge_ManualOverwritesManual(t *testing.T) {
	existing := &types.HistoryEntry{
		UserID: "u1", Day: day("2026-02-14"),
		Weight: fPtr(79.5), Source: types.SourceManual,
	}
	mut := types.HistoryMutation{Day: day("2026-02-14"), Weight: fPtr(79.0), Source: types.SourceManual}

	entry := Merge(existing, "u1", mut, now)

	if *entry.Weight != 79.0 {
		t.Errorf("Manual correction rejected: %v", *entry.Weight)
	}
}

func TestMerge_ManualOverwritesDeviceWeight(t *testing.T) {
	existing := &types.HistoryEntry{
		UserID: "u1", Day: day("2026-02-14"),
		Weight: fPtr(81.2), Source: types.SourceDeviceSync,
	}
	mut := types.HistoryMutation{Day: day("2026-02-14"), Weight: fPtr(80.0), Source: types.SourceManual}

	entry := Merge(existing, "u1", mut, now)

	if *entry.Weight != 80.0 {
		t.Errorf("Manual write lost to device weight: %v", *entry.Weight)
	}
	if entry.Source != types.SourceManual {
		t.Errorf("Source = %s, want manual", entry.Source)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	mut := types.HistoryMutation{
		Day: day("2026-02-14"), Steps: intPtr(9500), Weight: fPtr(80.0),
		Source: types.SourceDeviceSync,
	}

	first := Merge(nil, "u1", mut, now)
	second := Merge(first, "u1", mut, now)

	if first.Steps != second.Steps || *first.Weight != *second.Weight || first.Source != second.Source {
		t.Errorf("Replayed mutation changed the row: %+v vs %+v", first, second)
	}
}

func TestMerge_DoesNotMutateExisting(t *testing.T) {
	existing := &types.HistoryEntry{UserID: "u1", Day: day("2026-02-14"), Steps: 100, Source: types.SourceDeviceSync}
	mut := types.HistoryMutation{Day: day("2026-02-14"), Steps: intPtr(200), Source: types.SourceDeviceSync}

	Merge(existing, "u1", mut, now)

	if existing.Steps != 100 {
		t.Errorf("Merge mutated its input: %+v", existing)
	}
}

func TestMostRecentWeight(t *testing.T) {
	entries := []*types.HistoryEntry{
		{Day: day("2026-02-10"), Weight: fPtr(82.0)},
		{Day: day("2026-02-14"), Steps: 8000}, // no weight on the latest day
		{Day: day("2026-02-12"), Weight: fPtr(81.0)},
	}

	got := MostRecentWeight(entries)
	if got == nil || *got != 81.0 {
		t.Errorf("MostRecentWeight = %v, want 81.0", got)
	}

	if MostRecentWeight(nil) != nil {
		t.Error("Empty ledger should yield nil")
	}
}
