package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/obslog"
	"go.uber.org/zap"
)

type Options struct {
	JWTSecret      string
	ChatRatePerMin int
	// OriginPatterns is passed to the websocket upgrader; empty means
	// same-origin only.
	OriginPatterns []string
}

type Server struct {
	svc            *game.Service
	limiter        *chatLimiter
	originPatterns []string
	engine         *gin.Engine
}

func New(svc *game.Service, opts Options) *Server {
	s := &Server{
		svc:            svc,
		limiter:        newChatLimiter(opts.ChatRatePerMin),
		originPatterns: opts.OriginPatterns,
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api", Identity(opts.JWTSecret))
	api.POST("/game/assign", s.assign)
	api.POST("/game/guess", s.guess)
	api.POST("/chat", s.limiter.middleware(), s.chat)
	api.GET("/chat/ws", s.chatWS)
	api.GET("/leaderboard", s.leaderboard)
	api.GET("/user/points", s.points)
	api.GET("/profiles/names", s.names)
	api.POST("/profiles", s.createProfile)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obslog.L().Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
