package firestore

import (
	"cloud.google.com/go/firestore"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

func (c *Client) Users() *Collection[types.UserRecord] {
	return &Collection[types.UserRecord]{
		Ref:           c.fs.Collection(shared.CollectionUsers),
		ToFirestore:   UserToFirestore,
		FromFirestore: FirestoreToUser,
	}
}

// UserHistory is the per-user ledger: users/{uid}/history/{day}.
// The document ID is the canonical day key, which makes upserts naturally
// idempotent per (user, day) and range queries a simple ID comparison.
func (c *Client) UserHistory(userID string) *Collection[types.HistoryEntry] {
	return &Collection[types.HistoryEntry]{
		Ref:           c.fs.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionHistory),
		ToFirestore:   HistoryToFirestore,
		FromFirestore: FirestoreToHistory,
	}
}

func (c *Client) Challenges() *Collection[types.ChallengeWindow] {
	return &Collection[types.ChallengeWindow]{
		Ref:           c.fs.Collection(shared.CollectionChallenges),
		ToFirestore:   ChallengeToFirestore,
		FromFirestore: FirestoreToChallenge,
	}
}

// Participants are sub-collections of Challenges:
// challenges/{cid}/participants/{uid}. One document per scoring state.
func (c *Client) Participants(challengeID string) *Collection[types.ScoringState] {
	return &Collection[types.ScoringState]{
		Ref:           c.fs.Collection(shared.CollectionChallenges).Doc(challengeID).Collection(shared.CollectionParticipants),
		ToFirestore:   ParticipantToFirestore,
		FromFirestore: FirestoreToParticipant,
	}
}

func (c *Client) Executions() *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{
		Ref:           c.fs.Collection(shared.CollectionExecutions),
		ToFirestore:   ExecutionToFirestore,
		FromFirestore: FirestoreToExecution,
	}
}
