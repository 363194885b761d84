package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/park285/guesswho/internal/domain"
)

const leaderboardLimit = 50

// Scorer derives points from the result log. Every round awards one point to
// the guesser and one to the person guessed.
type Scorer struct {
	profiles ProfileDirectory
	results  ResultStore
	cache    LeaderboardCache
}

func NewScorer(profiles ProfileDirectory, results ResultStore) *Scorer {
	return &Scorer{profiles: profiles, results: results}
}

// AttachCache wires an optional leaderboard cache.
func (s *Scorer) AttachCache(c LeaderboardCache) {
	if s != nil {
		s.cache = c
	}
}

// Tally counts points per identity. Order of rows does not matter.
func Tally(rows []domain.RoundResult) map[string]int {
	tally := make(map[string]int)
	for _, r := range rows {
		tally[r.GuesserID]++
		tally[r.AssignedUserID]++
	}
	return tally
}

// Leaderboard joins the tally against named profiles, sorts by points
// descending (stable on directory order) and keeps the top 50.
func (s *Scorer) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var gen int64
	if s.cache != nil {
		cached, g, ok := s.cache.Get(ctx)
		if ok {
			return cached, nil
		}
		gen = g
	}

	rows, err := s.results.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	profiles, err := s.profiles.ListNamed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	tally := Tally(rows)
	out := make([]domain.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		if strings.TrimSpace(p.DisplayName) == "" {
			continue
		}
		out = append(out, domain.LeaderboardEntry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Points:      tally[p.UserID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if len(out) > leaderboardLimit {
		out = out[:leaderboardLimit]
	}

	if s.cache != nil {
		s.cache.Set(ctx, gen, out)
	}
	return out, nil
}

// PointsFor returns the total and per-role breakdown for userID.
func (s *Scorer) PointsFor(ctx context.Context, userID string) (*domain.Points, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, profileNotFound(userID, err)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	asGuesser, err := s.results.CountWhere(ctx, domain.FieldGuesser, userID)
	if err != nil {
		return nil, fmt.Errorf("count as guesser: %w", err)
	}
	asAssigned, err := s.results.CountWhere(ctx, domain.FieldAssigned, userID)
	if err != nil {
		return nil, fmt.Errorf("count as assigned: %w", err)
	}
	return &domain.Points{
		UserID:      userID,
		DisplayName: p.DisplayName,
		Total:       asGuesser + asAssigned,
		AsGuesser:   asGuesser,
		AsAssigned:  asAssigned,
	}, nil
}
