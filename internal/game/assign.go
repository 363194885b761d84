package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/obslog"
	"go.uber.org/zap"
)

// Assigner picks the next target for a guesser, preferring identities the
// guesser has not identified yet.
type Assigner struct {
	profiles ProfileDirectory
	results  ResultStore
	intn     func(n int) int
}

func NewAssigner(profiles ProfileDirectory, results ResultStore) *Assigner {
	return &Assigner{profiles: profiles, results: results, intn: rand.IntN}
}

// WithPicker replaces the uniform index picker. Used by tests.
func (a *Assigner) WithPicker(intn func(n int) int) *Assigner {
	if intn != nil {
		a.intn = intn
	}
	return a
}

// Assign returns a target profile for guesserID. Unseen candidates are drawn
// uniformly; once every candidate has been seen the draw falls back to the
// full candidate set, so the game never dead-ends.
func (a *Assigner) Assign(ctx context.Context, guesserID string) (*domain.Profile, error) {
	guesserID = strings.TrimSpace(guesserID)
	if guesserID == "" {
		return nil, ErrUnauthenticated
	}

	candidates, err := a.profiles.ListExcluding(ctx, guesserID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	candidates = newestPerUser(candidates)
	if len(candidates) == 0 {
		return nil, notFound("no users available for assignment")
	}

	seenIDs, err := a.results.AssignedBy(ctx, guesserID)
	if err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}
	seen := make(map[string]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	unseen := make([]*domain.Profile, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := seen[p.UserID]; !ok {
			unseen = append(unseen, p)
		}
	}

	pool := unseen
	if len(pool) == 0 {
		pool = candidates
		obslog.L().Info("assign_fallback_seen",
			zap.String("guesser_id", guesserID),
			zap.Int("candidates", len(candidates)),
		)
	}
	return pool[a.intn(len(pool))], nil
}

// newestPerUser keeps one profile per owning identity: the last one in
// creation order, which is the profile ProfileDirectory.Get resolves to.
func newestPerUser(profiles []*domain.Profile) []*domain.Profile {
	pos := make(map[string]int, len(profiles))
	out := make([]*domain.Profile, 0, len(profiles))
	for _, p := range profiles {
		if i, ok := pos[p.UserID]; ok {
			out[i] = p
			continue
		}
		pos[p.UserID] = len(out)
		out = append(out, p)
	}
	return out
}
