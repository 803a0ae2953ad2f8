// Package types defines the data model shared across the scoring service.
package types

import (
	"time"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
)

// Source tags where a history value came from. Manual entries outrank device
// syncs for weight; see the ledger upsert precedence rules.
type Source string

const (
	SourceDeviceSync    Source = "device-sync"
	SourceManual        Source = "manual"
	SourceAggregateSync Source = "aggregate-sync"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	switch s {
	case SourceDeviceSync, SourceManual, SourceAggregateSync:
		return true
	}
	return false
}

// HistoryEntry is one ledger row: a user's steps and weight for a single
// calendar day. Exactly one entry exists per (UserID, Day).
type HistoryEntry struct {
	UserID    string
	Day       daykey.Key
	Steps     int
	Weight    *float64 // nil = no weight recorded that day
	Source    Source
	UpdatedAt time.Time
}

// HistoryMutation is the input to a ledger upsert. Nil fields leave the
// stored value untouched (or default on first write).
type HistoryMutation struct {
	Day    daykey.Key
	Steps  *int
	Weight *float64
	Source Source
}

// ScoringState is the per (challenge, participant) aggregate. TotalPoints
// must equal StepGoalPoints + WeightLossPoints after every mutation.
type ScoringState struct {
	ChallengeID      string
	UserID           string
	DisplayName      string
	StartingWeight   *float64 // set once, on starting-weight confirmation
	LastWeight       *float64
	LastStepCount    int
	LastStepDay      daykey.Key
	LastStepPointDay daykey.Key
	StepGoalPoints   int
	WeightLossPoints int
	TotalPoints      int
	UpdatedAt        time.Time
}

// StepGoalDaysAchieved is derived from StepGoalPoints rather than stored
// twice; the old duplicated field drifted and needed one-off repair scripts.
func (s *ScoringState) StepGoalDaysAchieved() int { return s.StepGoalPoints }

// StartingWeightConfirmed reports whether the baseline weight has been fixed.
func (s *ScoringState) StartingWeightConfirmed() bool { return s.StartingWeight != nil }

// ChallengeWindow is the read-only challenge configuration scoring consumes.
// Owned by the challenge-management service.
type ChallengeWindow struct {
	ChallengeID    string
	Name           string
	StepGoal       int        // steps per day to earn a point; > 0
	StartDay       daykey.Key
	EndDay         daykey.Key // zero = open-ended
	WeighInWeekday time.Weekday
	Timezone       string // IANA name; empty falls back to the service default
}

// LastScoreDay is the last day that counts toward scoring: EndDay capped at
// today, or today for open-ended challenges.
func (w *ChallengeWindow) LastScoreDay(today daykey.Key) daykey.Key {
	if w.EndDay.IsZero() {
		return today
	}
	return daykey.Min(w.EndDay, today)
}

// ActiveOn reports whether the challenge should still be scored on day.
// lookbackDays keeps recently finished challenges eligible so late telemetry
// still reconciles.
func (w *ChallengeWindow) ActiveOn(day daykey.Key, lookbackDays int) bool {
	if day.Before(w.StartDay) {
		return false
	}
	if w.EndDay.IsZero() {
		return true
	}
	return !day.After(w.EndDay.AddDays(lookbackDays))
}

// UserRecord holds per-user settings the scoring service needs: timezone,
// display name, and telemetry provider credentials.
type UserRecord struct {
	UserID       string
	DisplayName  string
	Timezone     string
	FCMTokens    []string
	CreatedAt    time.Time
	Integrations *Integrations
}

type Integrations struct {
	Fitbit *FitbitIntegration
}

type FitbitIntegration struct {
	Enabled      bool
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	FitbitUserID string
}

// FitbitEnabled reports whether the user has a usable Fitbit connection.
func (u *UserRecord) FitbitEnabled() bool {
	return u != nil && u.Integrations != nil && u.Integrations.Fitbit != nil && u.Integrations.Fitbit.Enabled
}

// ExecutionStatus tracks a function run's lifecycle.
type ExecutionStatus string

const (
	StatusStarted ExecutionStatus = "STATUS_STARTED"
	StatusSuccess ExecutionStatus = "STATUS_SUCCESS"
	StatusFailure ExecutionStatus = "STATUS_FAILURE"
)

// ExecutionRecord is the audit trail for one function invocation.
type ExecutionRecord struct {
	ExecutionID string
	Service     string
	UserID      string
	TriggerType string
	Status      ExecutionStatus
	Error       string
	Outputs     map[string]interface{}
	StartedAt   time.Time
	FinishedAt  time.Time
}
