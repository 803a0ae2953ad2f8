package shared

const (
	ProjectID = "fitapp-project" // Can be overridden by env var in main if needed

	TopicScoreChanged    = "topic-score-changed"
	TopicTelemetrySync   = "topic-telemetry-sync"
	TopicBackfillTrigger = "topic-backfill-trigger"

	CollectionUsers        = "users"
	CollectionHistory      = "history"
	CollectionChallenges   = "challenges"
	CollectionParticipants = "participants"
	CollectionExecutions   = "executions"

	// DefaultTimezone anchors day keys when neither the user nor the
	// challenge carries a timezone.
	DefaultTimezone = "UTC"

	// DefaultBackfillDays is the trailing window the nightly backfill syncs.
	DefaultBackfillDays = 30

	// DefaultReconcileLookbackDays keeps a finished challenge eligible for
	// reconciliation a little past its end so late telemetry still lands.
	DefaultReconcileLookbackDays = 7
)
