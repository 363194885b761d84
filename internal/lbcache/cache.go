package lbcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyLeaderboard = "guesswho:leaderboard"
	keyGeneration  = "guesswho:leaderboard:gen"
)

var errStale = errors.New("leaderboard generation changed")

type entry struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// Cache keeps the computed leaderboard in Redis for a short TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Dial connects to redisURL (redis:// or rediss://) and pings it.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is empty")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Get returns the cached leaderboard and the generation it was read at. On a
// miss the generation is still reported so a later Set can detect races.
func (c *Cache) Get(ctx context.Context) ([]domain.LeaderboardEntry, int64, bool) {
	vals, err := c.rdb.MGet(ctx, keyLeaderboard, keyGeneration).Result()
	if err != nil {
		obslog.L().Warn("leaderboard_cache_get", zap.Error(err))
		return nil, 0, false
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		obslog.L().Warn("leaderboard_cache_generation", zap.Error(err))
		return nil, 0, false
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	var cached []entry
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		obslog.L().Warn("leaderboard_cache_decode", zap.Error(err))
		return nil, gen, false
	}
	out := make([]domain.LeaderboardEntry, len(cached))
	for i, e := range cached {
		out[i] = domain.LeaderboardEntry{UserID: e.UserID, DisplayName: e.DisplayName, Points: e.Points}
	}
	return out, gen, true
}

// Set stores entries computed at generation gen. The write is skipped when an
// Invalidate has bumped the generation in the meantime.
func (c *Cache) Set(ctx context.Context, gen int64, entries []domain.LeaderboardEntry) {
	cached := make([]entry, len(entries))
	for i, e := range entries {
		cached[i] = entry{UserID: e.UserID, DisplayName: e.DisplayName, Points: e.Points}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, keyGeneration).Int64()
		if err == redis.Nil {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, keyLeaderboard, raw, c.ttl)
			return nil
		})
		return err
	}, keyGeneration)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		obslog.L().Debug("leaderboard_cache_stale", zap.Int64("generation", gen))
	default:
		obslog.L().Warn("leaderboard_cache_set", zap.Error(err))
	}
}

// Invalidate drops the cached leaderboard and bumps the generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyGeneration)
		p.Del(ctx, keyLeaderboard)
		return nil
	})
	return err
}

func parseGeneration(v any) (int64, error) {
	switch g := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad generation %q: %w", g, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected generation type %T", v)
	}
}

// InvalidatingResults drops the cached leaderboard after every successful
// append so new rounds show up without waiting for the TTL.
type InvalidatingResults struct {
	game.ResultStore
	cache *Cache
}

func WrapResults(inner game.ResultStore, cache *Cache) *InvalidatingResults {
	return &InvalidatingResults{ResultStore: inner, cache: cache}
}

func (w *InvalidatingResults) Append(ctx context.Context, guesserID, assignedUserID string) (*domain.RoundResult, error) {
	res, err := w.ResultStore.Append(ctx, guesserID, assignedUserID)
	if err != nil {
		return nil, err
	}
	if err := w.cache.Invalidate(ctx); err != nil {
		obslog.L().Warn("leaderboard_cache_invalidate", zap.Error(err))
	}
	return res, nil
}
