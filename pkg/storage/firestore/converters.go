package firestore

import (
	"time"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get int from map (Firestore stores numbers as int64)
func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return 0
}

// Helper to safely get an optional float from map; nil when absent
func getFloatPtr(m map[string]interface{}, key string) *float64 {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			f := n
			return &f
		case int64:
			f := float64(n)
			return &f
		}
	}
	return nil
}

// Firestore returns arrays as []interface{}
func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if sub, ok := v.(map[string]interface{}); ok {
			return sub
		}
	}
	return nil
}

// --- HistoryEntry Converters ---

func HistoryToFirestore(e *types.HistoryEntry) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    e.UserID,
		"day":        string(e.Day),
		"steps":      e.Steps,
		"source":     string(e.Source),
		"updated_at": e.UpdatedAt,
	}
	if e.Weight != nil {
		m["weight"] = *e.Weight
	}
	return m
}

func FirestoreToHistory(m map[string]interface{}) *types.HistoryEntry {
	return &types.HistoryEntry{
		UserID:    getString(m, "user_id"),
		Day:       daykey.Key(getString(m, "day")),
		Steps:     getInt(m, "steps"),
		Weight:    getFloatPtr(m, "weight"),
		Source:    types.Source(getString(m, "source")),
		UpdatedAt: getTime(m, "updated_at"),
	}
}

// --- ScoringState Converters ---

func ParticipantToFirestore(s *types.ScoringState) map[string]interface{} {
	m := map[string]interface{}{
		"challenge_id":        s.ChallengeID,
		"user_id":             s.UserID,
		"display_name":        s.DisplayName,
		"last_step_count":     s.LastStepCount,
		"last_step_day":       string(s.LastStepDay),
		"last_step_point_day": string(s.LastStepPointDay),
		"step_goal_points":    s.StepGoalPoints,
		"weight_loss_points":  s.WeightLossPoints,
		"total_points":        s.TotalPoints,
		"updated_at":          s.UpdatedAt,
	}
	if s.StartingWeight != nil {
		m["starting_weight"] = *s.StartingWeight
	}
	if s.LastWeight != nil {
		m["last_weight"] = *s.LastWeight
	}
	return m
}

func FirestoreToParticipant(m map[string]interface{}) *types.ScoringState {
	return &types.ScoringState{
		ChallengeID:      getString(m, "challenge_id"),
		UserID:           getString(m, "user_id"),
		DisplayName:      getString(m, "display_name"),
		StartingWeight:   getFloatPtr(m, "starting_weight"),
		LastWeight:       getFloatPtr(m, "last_weight"),
		LastStepCount:    getInt(m, "last_step_count"),
		LastStepDay:      daykey.Key(getString(m, "last_step_day")),
		LastStepPointDay: daykey.Key(getString(m, "last_step_point_day")),
		StepGoalPoints:   getInt(m, "step_goal_points"),
		WeightLossPoints: getInt(m, "weight_loss_points"),
		TotalPoints:      getInt(m, "total_points"),
		UpdatedAt:        getTime(m, "updated_at"),
	}
}

// --- ChallengeWindow Converters ---

func ChallengeToFirestore(w *types.ChallengeWindow) map[string]interface{} {
	return map[string]interface{}{
		"challenge_id":     w.ChallengeID,
		"name":             w.Name,
		"step_goal":        w.StepGoal,
		"start_day":        string(w.StartDay),
		"end_day":          string(w.EndDay),
		"weigh_in_weekday": int(w.WeighInWeekday),
		"timezone":         w.Timezone,
	}
}

func FirestoreToChallenge(m map[string]interface{}) *types.ChallengeWindow {
	return &types.ChallengeWindow{
		ChallengeID:    getString(m, "challenge_id"),
		Name:           getString(m, "name"),
		StepGoal:       getInt(m, "step_goal"),
		StartDay:       daykey.Key(getString(m, "start_day")),
		EndDay:         daykey.Key(getString(m, "end_day")),
		WeighInWeekday: time.Weekday(getInt(m, "weigh_in_weekday")),
		Timezone:       getString(m, "timezone"),
	}
}

// --- UserRecord Converters ---

func UserToFirestore(u *types.UserRecord) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":      u.UserID,
		"display_name": u.DisplayName,
		"timezone":     u.Timezone,
		"fcm_tokens":   u.FCMTokens,
		"created_at":   u.CreatedAt,
	}

	if u.Integrations != nil && u.Integrations.Fitbit != nil {
		m["integrations"] = map[string]interface{}{
			"fitbit": map[string]interface{}{
				"enabled":        u.Integrations.Fitbit.Enabled,
				"access_token":   u.Integrations.Fitbit.AccessToken,
				"refresh_token":  u.Integrations.Fitbit.RefreshToken,
				"expires_at":     u.Integrations.Fitbit.ExpiresAt,
				"fitbit_user_id": u.Integrations.Fitbit.FitbitUserID,
			},
		}
	}
	return m
}

func FirestoreToUser(m map[string]interface{}) *types.UserRecord {
	u := &types.UserRecord{
		UserID:      getString(m, "user_id"),
		DisplayName: getString(m, "display_name"),
		Timezone:    getString(m, "timezone"),
		FCMTokens:   getStringSlice(m, "fcm_tokens"),
		CreatedAt:   getTime(m, "created_at"),
	}

	if integrations := getMap(m, "integrations"); integrations != nil {
		if fb := getMap(integrations, "fitbit"); fb != nil {
			u.Integrations = &types.Integrations{
				Fitbit: &types.FitbitIntegration{
					Enabled:      getBool(fb, "enabled"),
					AccessToken:  getString(fb, "access_token"),
					RefreshToken: getString(fb, "refresh_token"),
					ExpiresAt:    getTime(fb, "expires_at"),
					FitbitUserID: getString(fb, "fitbit_user_id"),
				},
			}
		}
	}
	return u
}

// --- ExecutionRecord Converters ---

func ExecutionToFirestore(r *types.ExecutionRecord) map[string]interface{} {
	m := map[string]interface{}{
		"execution_id": r.ExecutionID,
		"service":      r.Service,
		"user_id":      r.UserID,
		"trigger_type": r.TriggerType,
		"status":       string(r.Status),
		"started_at":   r.StartedAt,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if r.Outputs != nil {
		m["outputs"] = r.Outputs
	}
	if !r.FinishedAt.IsZero() {
		m["finished_at"] = r.FinishedAt
	}
	return m
}

func FirestoreToExecution(m map[string]interface{}) *types.ExecutionRecord {
	return &types.ExecutionRecord{
		ExecutionID: getString(m, "execution_id"),
		Service:     getString(m, "service"),
		UserID:      getString(m, "user_id"),
		TriggerType: getString(m, "trigger_type"),
		Status:      types.ExecutionStatus(getString(m, "status")),
		Error:       getString(m, "error"),
		Outputs:     getMap(m, "outputs"),
		StartedAt:   getTime(m, "started_at"),
		FinishedAt:  getTime(m, "finished_at"),
	}
}
