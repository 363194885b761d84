package httpapi

import (
	"strings"
	"time"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/pkg/guessdto"
)

func profileDTO(p *domain.Profile) guessdto.Profile {
	return guessdto.Profile{
		ID:          p.UserID,
		ProfileID:   p.ID,
		DisplayName: p.DisplayName,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func historyFromDTO(turns []guessdto.ChatTurn) []domain.ChatTurn {
	out := make([]domain.ChatTurn, 0, len(turns))
	for _, t := range turns {
		sender := domain.SenderUser
		if strings.EqualFold(t.Sender, string(domain.SenderAI)) {
			sender = domain.SenderAI
		}
		ts, _ := time.Parse(time.RFC3339, t.Timestamp)
		out = append(out, domain.ChatTurn{Content: t.Content, Sender: sender, Timestamp: ts})
	}
	return out
}

func chatReplyDTO(out *game.ChatOutcome) guessdto.ChatReply {
	reply := guessdto.ChatReply{Response: out.Response}
	if out.Outcome == game.CorrectGuess && out.Revealed != nil {
		reply.CorrectGuess = true
		reply.GuessedUser = &guessdto.GuessedUser{UserID: out.Revealed.UserID, DisplayName: out.Revealed.DisplayName}
	}
	return reply
}

func formFromDTO(req guessdto.CreateProfileRequest) game.ProfileForm {
	return game.ProfileForm{
		DisplayName:           req.DisplayName,
		College:               req.College,
		FavouriteHobby:        req.FavouriteHobby,
		FavouriteDish:         req.FavouriteDish,
		FavouriteSportsperson: req.FavouriteSportsperson,
		BestMovie:             req.BestMovie,
		RelationshipStatus:    req.RelationshipStatus,
		Additional:            req.Additional,
	}
}
