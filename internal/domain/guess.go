package domain

import "time"

// Profile is one playable persona. UserID is the owning identity; several
// profiles may share it.
type Profile struct {
	ID          string
	UserID      string
	DisplayName string
	Description string
	CreatedAt   time.Time
}

// RoundResult records that GuesserID correctly identified AssignedUserID.
// Rows are append-only and the same pair may repeat.
type RoundResult struct {
	ID             string
	GuesserID      string
	AssignedUserID string
	CreatedAt      time.Time
}

type LeaderboardEntry struct {
	UserID      string
	DisplayName string
	Points      int
}

type Points struct {
	UserID      string
	DisplayName string
	Total       int
	AsGuesser   int
	AsAssigned  int
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatTurn is one line of the client-held conversation.
type ChatTurn struct {
	Content   string
	Sender    Sender
	Timestamp time.Time
}

// ResultField selects which participant column of the result log to match.
type ResultField string

const (
	FieldGuesser  ResultField = "guesser_id"
	FieldAssigned ResultField = "assigned_user_id"
)
