package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/pkg/guessdto"
)

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, guessdto.ErrorResponse{Error: "invalid request body: " + err.Error(), Code: "validation"})
}

func (s *Server) assign(c *gin.Context) {
	p, err := s.svc.Assign(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guessdto.AssignResponse{AssignedUser: profileDTO(p)})
}

func (s *Server) guess(c *gin.Context) {
	var req guessdto.GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.svc.SubmitGuess(c.Request.Context(), identity(c), req.Guess, req.AssignedUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := guessdto.GuessResponse{Correct: res.Correct, Message: res.Message}
	if res.Correct {
		name := res.RevealedName
		out.ActualName = &name
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) chat(c *gin.Context) {
	var req guessdto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := s.svc.Chat(c.Request.Context(), identity(c), chatInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, chatReplyDTO(out))
}

func chatInput(req guessdto.ChatRequest) game.ChatInput {
	return game.ChatInput{
		Message:        req.Message,
		AssignedUserID: req.AssignedUserID,
		History:        historyFromDTO(req.ConversationHistory),
	}
}

func (s *Server) leaderboard(c *gin.Context) {
	entries, err := s.svc.Leaderboard(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := guessdto.LeaderboardResponse{Leaderboard: make([]guessdto.LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		out.Leaderboard = append(out.Leaderboard, guessdto.LeaderboardEntry{UserID: e.UserID, DisplayName: e.DisplayName, Points: e.Points})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) points(c *gin.Context) {
	p, err := s.svc.PointsFor(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guessdto.PointsResponse{
		Points:      p.Total,
		DisplayName: p.DisplayName,
		Breakdown:   guessdto.Breakdown{AsGuesser: p.AsGuesser, AsAssigned: p.AsAssigned},
	})
}

func (s *Server) names(c *gin.Context) {
	names, err := s.svc.SearchNames(c.Request.Context(), identity(c), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, guessdto.NamesResponse{Names: names})
}

func (s *Server) createProfile(c *gin.Context) {
	var req guessdto.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.svc.CreateProfile(c.Request.Context(), identity(c), formFromDTO(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guessdto.ProfileResponse{Profile: profileDTO(p)})
}
