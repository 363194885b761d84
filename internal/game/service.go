package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/obslog"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 40
	namesLimit          = 10

	fallbackChatCorrect = "🎉 Congratulations! You guessed correctly! Well done, detective! 🕵️‍♂️"
	fallbackRejection   = "Nope, that's not me! Nice try though! 😄"
)

// Messages renders player-facing text. *msgcat.Catalog satisfies it.
type Messages interface {
	Render(key string, data any) (string, error)
	Pick(key string, intn func(n int) int) (string, error)
}

type Config struct {
	// HistoryLimit caps how many trailing turns are forwarded to the
	// text generator.
	HistoryLimit int
}

// Service is the request-facing facade over assignment, guess detection and
// scoring. The caller identity is passed explicitly to every method.
type Service struct {
	profiles ProfileDirectory
	results  ResultStore
	gen      TextGenerator
	msgs     Messages

	assigner *Assigner
	detector *Detector
	scorer   *Scorer

	intn func(n int) int
	cfg  Config
}

func NewService(profiles ProfileDirectory, results ResultStore, gen TextGenerator, msgs Messages, cfg Config) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &Service{
		profiles: profiles,
		results:  results,
		gen:      gen,
		msgs:     msgs,
		assigner: NewAssigner(profiles, results),
		detector: NewDetector(),
		scorer:   NewScorer(profiles, results),
		intn:     rand.IntN,
		cfg:      cfg,
	}
}

// WithPicker makes every random choice (assignment, rejection line) use intn.
func (s *Service) WithPicker(intn func(n int) int) *Service {
	if intn != nil {
		s.intn = intn
		s.assigner.WithPicker(intn)
	}
	return s
}

// AttachLeaderboardCache wires an optional cache for Leaderboard.
func (s *Service) AttachLeaderboardCache(c LeaderboardCache) { s.scorer.AttachCache(c) }

// Assign picks the next target for identity.
func (s *Service) Assign(ctx context.Context, identity string) (*domain.Profile, error) {
	return s.assigner.Assign(ctx, identity)
}

// Target loads the profile a client claims to be guessing.
func (s *Service) Target(ctx context.Context, assignedUserID string) (*domain.Profile, error) {
	assignedUserID = strings.TrimSpace(assignedUserID)
	if assignedUserID == "" {
		return nil, validationf("assigned_user_id is required")
	}
	p, err := s.profiles.Get(ctx, assignedUserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound("assigned user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load assigned user: %w", err)
	}
	return p, nil
}

type GuessResult struct {
	Correct bool
	Message string
	// RevealedName is set only when Correct.
	RevealedName string
}

// SubmitGuess handles the explicit guess action.
func (s *Service) SubmitGuess(ctx context.Context, identity, rawGuess, assignedUserID string) (*GuessResult, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(rawGuess) == "" || strings.TrimSpace(assignedUserID) == "" {
		return nil, validationf("guess and assigned_user_id are required")
	}
	target, err := s.Target(ctx, assignedUserID)
	if err != nil {
		return nil, err
	}
	res := s.SubmitGuessFor(ctx, identity, rawGuess, target)
	return &res, nil
}

// SubmitGuessFor judges rawGuess against target with MatchExplicit and
// records the round when correct.
func (s *Service) SubmitGuessFor(ctx context.Context, identity, rawGuess string, target *domain.Profile) GuessResult {
	if !MatchExplicit(rawGuess, target.DisplayName) {
		msg, err := s.msgs.Render("guess.explicit_wrong", map[string]string{"Guess": rawGuess})
		if err != nil {
			msg = fmt.Sprintf("❌ Wrong guess! %q is not correct. Keep chatting to learn more!", rawGuess)
		}
		return GuessResult{Correct: false, Message: msg}
	}

	s.record(ctx, identity, target.UserID)
	obslog.L().Info("guess_correct",
		zap.String("mode", "explicit"),
		zap.String("guesser_id", identity),
		zap.String("assigned_user_id", target.UserID),
	)
	msg, err := s.msgs.Render("guess.explicit_correct", map[string]string{"Name": target.DisplayName})
	if err != nil {
		msg = fmt.Sprintf("🎉 Congratulations! You guessed correctly! It was %s! 🕵️‍♂️", target.DisplayName)
	}
	return GuessResult{Correct: true, Message: msg, RevealedName: target.DisplayName}
}

type ChatOutcome struct {
	Outcome Outcome
	Rule    RuleID
	// Response is empty for NotAGuess.
	Response string
	// Revealed is set only for CorrectGuess.
	Revealed *domain.Profile
}

// DetectAndScoreGuess screens one chat message for an implicit name guess.
func (s *Service) DetectAndScoreGuess(ctx context.Context, identity, message string, target *domain.Profile) ChatOutcome {
	outcome, rule := s.detector.Judge(message, target.DisplayName)
	switch outcome {
	case CorrectGuess:
		s.record(ctx, identity, target.UserID)
		obslog.L().Info("guess_correct",
			zap.String("mode", "chat"),
			zap.String("rule", string(rule)),
			zap.String("guesser_id", identity),
			zap.String("assigned_user_id", target.UserID),
		)
		msg, err := s.msgs.Render("guess.chat_correct", nil)
		if err != nil {
			msg = fallbackChatCorrect
		}
		return ChatOutcome{Outcome: CorrectGuess, Rule: rule, Response: msg, Revealed: target}
	case IncorrectGuess:
		obslog.L().Debug("guess_incorrect", zap.String("rule", string(rule)), zap.String("guesser_id", identity))
		msg, err := s.msgs.Pick("guess.rejections", s.intn)
		if err != nil {
			msg = fallbackRejection
		}
		return ChatOutcome{Outcome: IncorrectGuess, Rule: rule, Response: msg}
	default:
		return ChatOutcome{Outcome: NotAGuess}
	}
}

type ChatInput struct {
	Message        string
	AssignedUserID string
	History        []domain.ChatTurn
}

// Chat runs one conversation turn: guesses are resolved locally, everything
// else goes to the text generator in character.
func (s *Service) Chat(ctx context.Context, identity string, in ChatInput) (*ChatOutcome, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(in.Message) == "" || strings.TrimSpace(in.AssignedUserID) == "" {
		return nil, validationf("message and assigned_user_id are required")
	}
	target, err := s.Target(ctx, in.AssignedUserID)
	if err != nil {
		return nil, err
	}

	out := s.DetectAndScoreGuess(ctx, identity, in.Message, target)
	if out.Outcome != NotAGuess {
		return &out, nil
	}

	if s.gen == nil {
		return nil, upstream("text generation is disabled", nil)
	}
	history := in.History
	if len(history) > s.cfg.HistoryLimit {
		history = history[len(history)-s.cfg.HistoryLimit:]
	}
	reply, err := s.gen.Generate(ctx, GenerateRequest{
		Persona: target.Description,
		History: history,
		Message: in.Message,
	})
	if err != nil {
		obslog.L().Error("generate_failed", zap.String("guesser_id", identity), zap.Error(err))
		return nil, upstream("failed to generate response", err)
	}
	out.Response = reply
	return &out, nil
}

// Leaderboard returns the top entries. identity only gates access.
func (s *Service) Leaderboard(ctx context.Context, identity string) ([]domain.LeaderboardEntry, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUnauthenticated
	}
	return s.scorer.Leaderboard(ctx)
}

func (s *Service) PointsFor(ctx context.Context, identity string) (*domain.Points, error) {
	return s.scorer.PointsFor(ctx, identity)
}

// SearchNames backs guess autocomplete.
func (s *Service) SearchNames(ctx context.Context, identity, query string) ([]string, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrUnauthenticated
	}
	names, err := s.profiles.SearchNames(ctx, strings.TrimSpace(query), namesLimit)
	if err != nil {
		return nil, fmt.Errorf("search names: %w", err)
	}
	return names, nil
}

// record appends a round result. A failed write is logged and swallowed so
// that the verdict already computed reaches the player.
func (s *Service) record(ctx context.Context, guesserID, assignedUserID string) {
	if _, err := s.results.Append(ctx, guesserID, assignedUserID); err != nil {
		obslog.L().Warn("result_append_failed",
			zap.String("guesser_id", guesserID),
			zap.String("assigned_user_id", assignedUserID),
			zap.Error(fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)),
		)
	}
}
