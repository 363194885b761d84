package gamebuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/guesswho/internal/config"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/genai"
	"github.com/park285/guesswho/internal/lbcache"
	"github.com/park285/guesswho/internal/msgcat"
	"github.com/park285/guesswho/internal/store"
	"go.uber.org/zap"
)

type Deps struct {
	Service  *game.Service
	Messages *msgcat.Catalog

	closers []func() error
}

// Close releases the database pool and Redis client, if any.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Messages = msgs

	var (
		profiles game.ProfileDirectory
		results  game.ResultStore
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = d.Close()
			return nil, err
		}
		profiles, results = pg, pg
	} else {
		logger.Warn("store_in_memory", zap.String("reason", "DATABASE_URL not set"))
		mem := store.NewMemory()
		profiles, results = mem, mem
	}

	var cache *lbcache.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := lbcache.Dial(pingCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init leaderboard cache: %w", err)
		}
		d.closers = append(d.closers, rdb.Close)
		cache = lbcache.New(rdb, cfg.LeaderboardCacheTTL)
		results = lbcache.WrapResults(results, cache)
	}

	var gen game.TextGenerator
	if cfg.GeminiDisabled {
		logger.Warn("gemini_disabled")
	} else {
		gen = genai.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, msgs,
			genai.WithModel(cfg.GeminiModel),
			genai.WithTimeout(cfg.GeminiTimeout),
		)
	}

	svc := game.NewService(profiles, results, gen, msgs, game.Config{HistoryLimit: cfg.ChatHistoryLimit})
	if cache != nil {
		svc.AttachLeaderboardCache(cache)
	}
	d.Service = svc

	logger.Info("game_ready",
		zap.Bool("postgres", strings.TrimSpace(cfg.DatabaseURL) != ""),
		zap.Bool("redis", cache != nil),
		zap.Bool("gemini", gen != nil),
	)
	return d, nil
}
