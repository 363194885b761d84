package game_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/msgcat"
	"github.com/park285/guesswho/internal/store"
)

type fakeGen struct {
	got   []game.GenerateRequest
	reply string
	err   error
}

func (g *fakeGen) Generate(_ context.Context, req game.GenerateRequest) (string, error) {
	g.got = append(g.got, req)
	return g.reply, g.err
}

type failingResults struct {
	*store.Memory
}

func (failingResults) Append(context.Context, string, string) (*domain.RoundResult, error) {
	return nil, errors.New("connection reset")
}

func catalog(t *testing.T) *msgcat.Catalog {
	t.Helper()
	c, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	return c
}

func seed(t *testing.T, m *store.Memory, profiles ...[2]string) {
	t.Helper()
	for _, p := range profiles {
		if _, err := m.Create(context.Background(), &domain.Profile{UserID: p[0], DisplayName: p[1], Description: "about " + p[0]}); err != nil {
			t.Fatalf("seed %v: %v", p, err)
		}
	}
}

func appendRounds(t *testing.T, m *store.Memory, pairs ...[2]string) {
	t.Helper()
	for _, p := range pairs {
		if _, err := m.Append(context.Background(), p[0], p[1]); err != nil {
			t.Fatalf("append %v: %v", p, err)
		}
	}
}

func newService(t *testing.T, mem *store.Memory, gen game.TextGenerator) *game.Service {
	t.Helper()
	return game.NewService(mem, mem, gen, catalog(t), game.Config{HistoryLimit: 2})
}

func TestAssignPrefersUnseen(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"g", "Guesser"}, [2]string{"a", "Ann"}, [2]string{"b", "Bob"}, [2]string{"c", "Cid"})
	appendRounds(t, mem, [2]string{"g", "a"}, [2]string{"g", "b"}, [2]string{"x", "c"})

	for _, pick := range []func(int) int{func(int) int { return 0 }, func(n int) int { return n - 1 }} {
		svc := newService(t, mem, nil).WithPicker(pick)
		p, err := svc.Assign(context.Background(), "g")
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if p.UserID != "c" {
			t.Fatalf("assigned %q, want the only unseen candidate c", p.UserID)
		}
	}
}

func TestAssignFallsBackWhenAllSeen(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"g", "Guesser"}, [2]string{"a", "Ann"}, [2]string{"b", "Bob"})
	appendRounds(t, mem, [2]string{"g", "a"}, [2]string{"g", "b"})

	svc := newService(t, mem, nil).WithPicker(func(n int) int { return n - 1 })
	p, err := svc.Assign(context.Background(), "g")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if p.UserID != "b" {
		t.Fatalf("assigned %q, want b", p.UserID)
	}
}

func TestAssignMatchesTargetForMultiProfileUser(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "Old Persona"}, [2]string{"k", "Kim"}, [2]string{"j", "John Smith"})
	ctx := context.Background()

	for _, pick := range []func(int) int{func(int) int { return 0 }, func(n int) int { return n - 1 }} {
		svc := newService(t, mem, nil).WithPicker(pick)
		p, err := svc.Assign(ctx, "g")
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		target, err := svc.Target(ctx, p.UserID)
		if err != nil {
			t.Fatalf("Target: %v", err)
		}
		if p.ID != target.ID || p.DisplayName != target.DisplayName {
			t.Fatalf("assigned %+v but round resolves to %+v", p, target)
		}
	}

	// one candidate per identity, so j is not twice as likely as k
	svc := newService(t, mem, nil).WithPicker(func(n int) int {
		if n != 2 {
			t.Fatalf("candidate pool size = %d, want 2", n)
		}
		return 0
	})
	p, err := svc.Assign(ctx, "g")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if p.DisplayName != "John Smith" {
		t.Fatalf("assigned %q, want the newest profile of j", p.DisplayName)
	}
}

func TestAssignNoCandidates(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"g", "Guesser"}, [2]string{"g", "Second persona"})
	svc := newService(t, mem, nil)

	_, err := svc.Assign(context.Background(), "g")
	if !errors.Is(err, game.ErrNotFound) || game.Code(err) != "not_found" {
		t.Fatalf("err = %v, want not_found", err)
	}
	if _, err := svc.Assign(context.Background(), " "); !errors.Is(err, game.ErrUnauthenticated) {
		t.Fatalf("blank identity err = %v", err)
	}
}

func TestChatCorrectGuessScoresBoth(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"g", "Gina"}, [2]string{"j", "John Smith"})
	gen := &fakeGen{reply: "unused"}
	svc := newService(t, mem, gen)
	ctx := context.Background()

	out, err := svc.Chat(ctx, "g", game.ChatInput{Message: "Are you John?", AssignedUserID: "j"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Outcome != game.CorrectGuess || out.Rule != game.RuleAreYou || out.Revealed == nil || out.Revealed.DisplayName != "John Smith" {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Response, "Congratulations") {
		t.Fatalf("response = %q", out.Response)
	}
	if len(gen.got) != 0 {
		t.Fatalf("generator must not be called for guesses")
	}

	lb, err := svc.Leaderboard(ctx, "g")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	for _, e := range lb {
		if e.Points != 1 {
			t.Fatalf("leaderboard = %+v, want 1 point each", lb)
		}
	}
}

func TestChatIncorrectGuessPicksRejection(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John Smith"})
	cat := catalog(t)
	svc := game.NewService(mem, mem, nil, cat, game.Config{}).WithPicker(func(int) int { return 2 })

	out, err := svc.Chat(context.Background(), "g", game.ChatInput{Message: "What's your name?", AssignedUserID: "j"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Outcome != game.IncorrectGuess || out.Response != cat.Pool("guess.rejections")[2] {
		t.Fatalf("outcome = %+v", out)
	}
	if rows, _ := mem.All(context.Background()); len(rows) != 0 {
		t.Fatalf("incorrect guess must not be recorded: %d rows", len(rows))
	}
}

func TestChatPassesThroughToGenerator(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John Smith"})
	gen := &fakeGen{reply: "I love sailing."}
	svc := newService(t, mem, gen)

	history := []domain.ChatTurn{
		{Content: "one", Sender: domain.SenderUser},
		{Content: "two", Sender: domain.SenderAI},
		{Content: "three", Sender: domain.SenderUser},
	}
	out, err := svc.Chat(context.Background(), "g", game.ChatInput{Message: "What hobbies do you have?", AssignedUserID: "j", History: history})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Outcome != game.NotAGuess || out.Response != "I love sailing." {
		t.Fatalf("outcome = %+v", out)
	}
	if len(gen.got) != 1 {
		t.Fatalf("generator calls = %d", len(gen.got))
	}
	req := gen.got[0]
	if req.Persona != "about j" || req.Message != "What hobbies do you have?" {
		t.Fatalf("request = %+v", req)
	}
	if len(req.History) != 2 || req.History[0].Content != "two" {
		t.Fatalf("history not trimmed to the last 2 turns: %+v", req.History)
	}
}

func TestChatGeneratorFailure(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John Smith"})
	svc := newService(t, mem, &fakeGen{err: errors.New("boom")})

	_, err := svc.Chat(context.Background(), "g", game.ChatInput{Message: "hello", AssignedUserID: "j"})
	if !errors.Is(err, game.ErrUpstream) || game.Code(err) != "upstream" {
		t.Fatalf("err = %v, want upstream", err)
	}

	wrapped := newService(t, mem, &fakeGen{err: fmt.Errorf("%w: %w", game.ErrUpstream, errors.New("gemini api error: status=503"))})
	_, err = wrapped.Chat(context.Background(), "g", game.ChatInput{Message: "hello", AssignedUserID: "j"})
	var de *game.DomainError
	if !errors.As(err, &de) || !de.Retryable || de.Message != "failed to generate response" || game.Code(err) != "upstream" {
		t.Fatalf("transport error not wrapped as retryable upstream: %#v", err)
	}

	disabled := newService(t, mem, nil)
	if _, err := disabled.Chat(context.Background(), "g", game.ChatInput{Message: "hello", AssignedUserID: "j"}); game.Code(err) != "upstream" {
		t.Fatalf("nil generator err = %v", err)
	}
}

func TestChatValidation(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John Smith"})
	svc := newService(t, mem, &fakeGen{})
	ctx := context.Background()

	if _, err := svc.Chat(ctx, "", game.ChatInput{Message: "hi", AssignedUserID: "j"}); !errors.Is(err, game.ErrUnauthenticated) {
		t.Fatalf("no identity err = %v", err)
	}
	if _, err := svc.Chat(ctx, "g", game.ChatInput{Message: " ", AssignedUserID: "j"}); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("blank message err = %v", err)
	}
	if _, err := svc.Chat(ctx, "g", game.ChatInput{Message: "hi", AssignedUserID: "nobody"}); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("unknown target err = %v", err)
	}
}

func TestStoreFailureKeepsVerdict(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John Smith"})
	svc := game.NewService(mem, failingResults{mem}, nil, catalog(t), game.Config{})
	ctx := context.Background()

	out, err := svc.Chat(ctx, "g", game.ChatInput{Message: "Are you John?", AssignedUserID: "j"})
	if err != nil || out.Outcome != game.CorrectGuess {
		t.Fatalf("chat = %+v, %v", out, err)
	}
	res, err := svc.SubmitGuess(ctx, "g", "john", "j")
	if err != nil || !res.Correct || res.RevealedName != "John Smith" {
		t.Fatalf("guess = %+v, %v", res, err)
	}
}

func TestSubmitGuess(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"j", "John"})
	svc := newService(t, mem, nil)
	ctx := context.Background()

	res, err := svc.SubmitGuess(ctx, "g", "jo", "j")
	if err != nil || !res.Correct || res.RevealedName != "John" || !strings.Contains(res.Message, "It was John") {
		t.Fatalf("jo = %+v, %v", res, err)
	}
	res, err = svc.SubmitGuess(ctx, "g", "xyz", "j")
	if err != nil || res.Correct || res.RevealedName != "" || !strings.Contains(res.Message, `"xyz"`) {
		t.Fatalf("xyz = %+v, %v", res, err)
	}
	rows, _ := mem.All(ctx)
	if len(rows) != 1 || rows[0].GuesserID != "g" || rows[0].AssignedUserID != "j" {
		t.Fatalf("rows = %+v", rows)
	}
	if _, err := svc.SubmitGuess(ctx, "g", "", "j"); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("blank guess err = %v", err)
	}
}

func TestLeaderboardOrderIndependent(t *testing.T) {
	pairs := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}, {"c", "a"}, {"a", "b"}}
	build := func(order []int) []domain.LeaderboardEntry {
		mem := store.NewMemory()
		seed(t, mem, [2]string{"a", "Ann"}, [2]string{"b", "Bob"}, [2]string{"c", "Cid"})
		for _, i := range order {
			appendRounds(t, mem, pairs[i])
		}
		lb, err := newService(t, mem, nil).Leaderboard(context.Background(), "a")
		if err != nil {
			t.Fatalf("Leaderboard: %v", err)
		}
		return lb
	}
	want := build([]int{0, 1, 2, 3, 4})
	if want[0].UserID != "a" || want[0].Points != 4 {
		t.Fatalf("leaderboard = %+v", want)
	}
	for _, order := range [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {3, 4, 0, 2, 1}} {
		got := build(order)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("order %v: %+v != %+v", order, got, want)
		}
	}
}

func TestLeaderboardTruncatesStably(t *testing.T) {
	mem := store.NewMemory()
	for i := 0; i < 60; i++ {
		seed(t, mem, [2]string{fmt.Sprintf("u%02d", i), fmt.Sprintf("User %02d", i)})
	}
	if _, err := mem.Create(context.Background(), &domain.Profile{UserID: "anon"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	appendRounds(t, mem, [2]string{"u55", "anon"})

	lb, err := newService(t, mem, nil).Leaderboard(context.Background(), "u00")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(lb) != 50 {
		t.Fatalf("len = %d, want 50", len(lb))
	}
	if lb[0].UserID != "u55" || lb[0].Points != 1 {
		t.Fatalf("top = %+v", lb[0])
	}
	for i, e := range lb[1:] {
		if want := fmt.Sprintf("u%02d", i); e.UserID != want {
			t.Fatalf("position %d = %s, want %s (ties keep directory order)", i+1, e.UserID, want)
		}
	}
}

type mapCache struct {
	entries []domain.LeaderboardEntry
	gen     int64
	sets    int
	setGens []int64
}

func (c *mapCache) Get(context.Context) ([]domain.LeaderboardEntry, int64, bool) {
	return c.entries, c.gen, c.entries != nil
}

func (c *mapCache) Set(_ context.Context, gen int64, e []domain.LeaderboardEntry) {
	c.setGens = append(c.setGens, gen)
	if gen != c.gen {
		return
	}
	c.entries = e
	c.sets++
}

func TestLeaderboardReadsThroughCache(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"a", "Ann"})
	svc := newService(t, mem, nil)
	cache := &mapCache{}
	svc.AttachLeaderboardCache(cache)
	ctx := context.Background()

	if _, err := svc.Leaderboard(ctx, "a"); err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	appendRounds(t, mem, [2]string{"a", "b"})
	lb, _ := svc.Leaderboard(ctx, "a")
	if cache.sets != 1 || lb[0].Points != 0 {
		t.Fatalf("expected cached result, sets=%d lb=%+v", cache.sets, lb)
	}
}

func TestLeaderboardPassesObservedGeneration(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"a", "Ann"})
	svc := newService(t, mem, nil)
	cache := &mapCache{gen: 7}
	svc.AttachLeaderboardCache(cache)

	if _, err := svc.Leaderboard(context.Background(), "a"); err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(cache.setGens) != 1 || cache.setGens[0] != 7 {
		t.Fatalf("Set generations = %v, want [7]", cache.setGens)
	}
}

func TestPointsFor(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, [2]string{"u", "Una"})
	appendRounds(t, mem,
		[2]string{"u", "x"}, [2]string{"u", "y"},
		[2]string{"x", "u"}, [2]string{"y", "u"}, [2]string{"z", "u"},
		[2]string{"x", "y"},
	)
	p, err := newService(t, mem, nil).PointsFor(context.Background(), "u")
	if err != nil {
		t.Fatalf("PointsFor: %v", err)
	}
	if p.AsGuesser != 2 || p.AsAssigned != 3 || p.Total != 5 || p.DisplayName != "Una" {
		t.Fatalf("points = %+v", p)
	}
}

func TestPointsForMissingProfile(t *testing.T) {
	svc := newService(t, store.NewMemory(), nil)
	_, err := svc.PointsFor(context.Background(), "ghost")
	if !errors.Is(err, game.ErrProfileNotFound) || game.Code(err) != "profile_not_found" {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.PointsFor(context.Background(), ""); !errors.Is(err, game.ErrUnauthenticated) {
		t.Fatalf("blank identity err = %v", err)
	}
}

func TestCreateProfile(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem, nil)
	ctx := context.Background()

	p, err := svc.CreateProfile(ctx, "u1", game.ProfileForm{
		DisplayName:        " Maya Ray ",
		College:            "Stanford",
		FavouriteDish:      "ramen",
		RelationshipStatus: "Single",
		Additional:         "I have two cats.",
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	want := "I studied at Stanford. My favorite dish is ramen. I am currently single. I have two cats."
	if p.DisplayName != "Maya Ray" || p.Description != want {
		t.Fatalf("profile = %+v", p)
	}
	if _, err := svc.CreateProfile(ctx, "u1", game.ProfileForm{DisplayName: "X", RelationshipStatus: "complicated"}); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("bad relationship err = %v", err)
	}
	names, err := svc.SearchNames(ctx, "u2", "  ray ")
	if err != nil || len(names) != 1 || names[0] != "Maya Ray" {
		t.Fatalf("SearchNames = %v, %v", names, err)
	}
}
