package pubsub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Event types published by the scoring service.
const (
	EventTypeScoreChanged  = "com.fitapp.scoring.score-changed"
	EventTypeTelemetrySync = "com.fitapp.scoring.telemetry-sync"
	EventSourceScoring     = "//fitapp/scoring"
)

// ScoreChangedPayload announces a participant's new point totals to the
// notification and chat collaborators.
type ScoreChangedPayload struct {
	ChallengeID      string `json:"challenge_id"`
	UserID           string `json:"user_id"`
	StepGoalPoints   int    `json:"step_goal_points"`
	WeightLossPoints int    `json:"weight_loss_points"`
	TotalPoints      int    `json:"total_points"`
	StepPointAwarded bool   `json:"step_point_awarded"`
	Day              string `json:"day"`
}

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetType(eventType)
	e.SetSource(source)

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}

	return e, nil
}
