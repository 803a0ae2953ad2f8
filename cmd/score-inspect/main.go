package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	"github.com/dbop14/FitApp-sub000/pkg/domain/scoring"
	"github.com/dbop14/FitApp-sub000/pkg/infrastructure/database"
)

// score-inspect dumps a participant's history window and replays the
// step-goal score from it, flagging any drift against the stored state.
// Useful when a leaderboard number looks wrong and you want to see which
// side (ledger or cached score) disagrees before forcing a reconcile.
func main() {
	projectID := flag.String("project", os.Getenv("GCP_PROJECT"), "GCP project ID")
	challengeID := flag.String("challenge", "", "Challenge ID")
	userID := flag.String("user", "", "User ID")
	asOf := flag.String("as-of", "", "Day to score as of (YYYY-MM-DD, default today UTC)")
	flag.Parse()

	if *projectID == "" || *challengeID == "" || *userID == "" {
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer client.Close()
	db := database.NewFirestoreAdapter(client)

	today := daykey.Today(time.UTC)
	if *asOf != "" {
		if today, err = daykey.Parse(*asOf); err != nil {
			log.Fatalf("Invalid -as-of day: %v", err)
		}
	}

	window, err := db.GetChallenge(ctx, *challengeID)
	if err != nil {
		log.Fatalf("Failed to load challenge %s: %v", *challengeID, err)
	}
	state, err := db.GetParticipant(ctx, *challengeID, *userID)
	if err != nil {
		log.Fatalf("Failed to load participant %s: %v", *userID, err)
	}

	last := window.LastScoreDay(today)
	entries, err := db.QueryHistory(ctx, *userID, window.StartDay, last)
	if err != nil {
		log.Fatalf("Failed to query history: %v", err)
	}

	fmt.Printf("Challenge %s (%q), step goal %d, window %s..%s\n",
		window.ChallengeID, window.Name, window.StepGoal, window.StartDay, last)
	fmt.Printf("Participant %s (%q)\n\n", state.UserID, state.DisplayName)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tSTEPS\tWEIGHT\tSOURCE\tGOAL MET")
	for _, e := range entries {
		weight := "-"
		if e.Weight != nil {
			weight = fmt.Sprintf("%.1f", *e.Weight)
		}
		met := ""
		if window.StepGoal > 0 && e.Steps >= window.StepGoal {
			met = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", e.Day, e.Steps, weight, e.Source, met)
	}
	w.Flush()

	// Replay on a copy so this stays a read-only tool.
	replay := *state
	result := scoring.Reconcile(&replay, window, entries, today)

	fmt.Printf("\nStored step points:   %d over %d days (last point day %s)\n",
		state.StepGoalPoints, state.StepGoalDaysAchieved(), orNone(state.LastStepPointDay))
	fmt.Printf("Replayed step points: %d (last qualifying day %s)\n",
		result.StepGoalPoints, orNone(result.LastStepDay))
	fmt.Printf("Weight-loss points:   %d (starting %s, last %s)\n",
		state.WeightLossPoints, orNilWeight(state.StartingWeight), orNilWeight(state.LastWeight))
	fmt.Printf("Stored total:         %d\n", state.TotalPoints)

	if result.Changed {
		fmt.Println("\nDRIFT: stored score disagrees with the ledger; a reconcile run would correct it.")
		os.Exit(2)
	}
	fmt.Println("\nStored score matches the ledger.")
}

func orNone(d daykey.Key) string {
	if d.IsZero() {
		return "(none)"
	}
	return string(d)
}

func orNilWeight(w *float64) string {
	if w == nil {
		return "(unset)"
	}
	return fmt.Sprintf("%.1f", *w)
}
