package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/obslog"
	"go.uber.org/zap"
)

// ProfileForm is the profile creation input. Only DisplayName is required.
type ProfileForm struct {
	DisplayName           string
	College               string
	FavouriteHobby        string
	FavouriteDish         string
	FavouriteSportsperson string
	BestMovie             string
	RelationshipStatus    string // "Single" or "Committed"
	Additional            string
}

// Describe composes the first-person persona description. The display name is
// never part of it.
func Describe(form ProfileForm, msgs Messages) string {
	fields := []struct {
		key, value string
	}{
		{"persona.college", form.College},
		{"persona.hobby", form.FavouriteHobby},
		{"persona.dish", form.FavouriteDish},
		{"persona.sportsperson", form.FavouriteSportsperson},
		{"persona.movie", form.BestMovie},
		{"persona.relationship", strings.ToLower(form.RelationshipStatus)},
	}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			continue
		}
		line, err := msgs.Render(f.key, v)
		if err != nil {
			obslog.L().Warn("persona_render_failed", zap.String("key", f.key), zap.Error(err))
			continue
		}
		parts = append(parts, line)
	}
	if extra := strings.TrimSpace(form.Additional); extra != "" {
		parts = append(parts, extra)
	}
	return strings.Join(parts, " ")
}

// CreateProfile adds a new profile owned by identity. Several profiles per
// identity are allowed.
func (s *Service) CreateProfile(ctx context.Context, identity string, form ProfileForm) (*domain.Profile, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrUnauthenticated
	}
	name := strings.TrimSpace(form.DisplayName)
	if name == "" {
		return nil, validationf("display name is required")
	}
	switch strings.ToLower(strings.TrimSpace(form.RelationshipStatus)) {
	case "", "single", "committed":
	default:
		return nil, validationf("relationship status must be Single or Committed")
	}

	p, err := s.profiles.Create(ctx, &domain.Profile{
		UserID:      identity,
		DisplayName: name,
		Description: Describe(form, s.msgs),
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	obslog.L().Info("profile_create", zap.String("user_id", identity), zap.String("profile_id", p.ID))
	return p, nil
}
