package guessdto

import "time"

// Profile.ID is the owning user id; clients send it back as assigned_user_id.
type Profile struct {
	ID          string    `json:"id"`
	ProfileID   string    `json:"profile_id"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type AssignResponse struct {
	AssignedUser Profile `json:"assigned_user"`
}

type GuessResponse struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
	// ActualName is null unless Correct.
	ActualName *string `json:"actual_name"`
}

type GuessedUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type ChatReply struct {
	Response     string       `json:"response"`
	CorrectGuess bool         `json:"correct_guess,omitempty"`
	GuessedUser  *GuessedUser `json:"guessed_user,omitempty"`
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type Breakdown struct {
	AsGuesser  int `json:"as_guesser"`
	AsAssigned int `json:"as_assigned"`
}

type PointsResponse struct {
	Points      int       `json:"points"`
	DisplayName string    `json:"display_name"`
	Breakdown   Breakdown `json:"breakdown"`
}

type NamesResponse struct {
	Names []string `json:"names"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}
