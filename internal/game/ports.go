package game

import (
	"context"

	"github.com/park285/guesswho/internal/domain"
)

// ProfileDirectory is the durable set of player profiles.
type ProfileDirectory interface {
	// ListExcluding returns profiles not owned by userID, in creation order.
	ListExcluding(ctx context.Context, userID string) ([]*domain.Profile, error)
	// ListNamed returns every profile with a non-empty display name, in
	// storage order.
	ListNamed(ctx context.Context) ([]*domain.Profile, error)
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	SearchNames(ctx context.Context, query string, limit int) ([]string, error)
	Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
}

// ResultStore is the append-only log of completed rounds.
type ResultStore interface {
	Append(ctx context.Context, guesserID, assignedUserID string) (*domain.RoundResult, error)
	All(ctx context.Context) ([]domain.RoundResult, error)
	CountWhere(ctx context.Context, field domain.ResultField, userID string) (int, error)
	// AssignedBy lists assigned_user_id of every round won by guesserID.
	AssignedBy(ctx context.Context, guesserID string) ([]string, error)
}

type GenerateRequest struct {
	Persona string
	History []domain.ChatTurn
	Message string
}

// TextGenerator produces an in-character reply. Implementations must keep the
// persona's real name secret, must not ask the user questions back and must
// not reveal that the reply is automated.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// LeaderboardCache is an optional read-through cache for leaderboard().
// Get reports the cache generation it observed; Set must drop entries whose
// generation has been invalidated since.
type LeaderboardCache interface {
	Get(ctx context.Context) (entries []domain.LeaderboardEntry, generation int64, ok bool)
	Set(ctx context.Context, generation int64, entries []domain.LeaderboardEntry)
}
