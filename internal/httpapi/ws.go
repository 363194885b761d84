package httpapi

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/park285/guesswho/internal/obslog"
	"github.com/park285/guesswho/pkg/guessdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// chatWS serves /api/chat/ws. Each ChatRequest frame gets exactly one reply
// frame, either a ChatReply or an ErrorResponse.
func (s *Server) chatWS(c *gin.Context) {
	id := identity(c)
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  s.originPatterns,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(64 << 10)

	ctx := c.Request.Context()
	obslog.L().Debug("ws_open", zap.String("guesser_id", id))
	for {
		var req guessdto.ChatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				obslog.L().Debug("ws_read_end", zap.String("guesser_id", id), zap.Error(err))
			}
			return
		}
		if err := wsjson.Write(ctx, conn, s.chatFrame(ctx, id, req)); err != nil {
			obslog.L().Debug("ws_write_failed", zap.String("guesser_id", id), zap.Error(err))
			return
		}
	}
}

func (s *Server) chatFrame(ctx context.Context, id string, req guessdto.ChatRequest) any {
	if !s.limiter.Allow(id) {
		return guessdto.ErrorResponse{Error: "too many messages", Code: "rate_limited", Retryable: true}
	}
	out, err := s.svc.Chat(ctx, id, chatInput(req))
	if err != nil {
		_, body := errorBody(err)
		return body
	}
	return chatReplyDTO(out)
}
