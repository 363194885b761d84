package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/obslog"
	"github.com/park285/guesswho/pkg/guessdto"
	"go.uber.org/zap"
)

func statusFor(code string) int {
	switch code {
	case "unauthenticated":
		return http.StatusUnauthorized
	case "not_found", "profile_not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	case "upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) (int, guessdto.ErrorResponse) {
	code := game.Code(err)
	body := guessdto.ErrorResponse{Code: code, Error: err.Error()}
	var de *game.DomainError
	if errors.As(err, &de) {
		body.Retryable = de.Retryable
		if de.Message != "" {
			body.Error = de.Message
		}
	}
	switch code {
	case "upstream":
		body.Error = "failed to generate response"
		body.Retryable = true
	case "internal":
		body.Error = "internal error"
	}
	return statusFor(code), body
}

func writeError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		obslog.L().Error("request_failed",
			zap.String("path", c.FullPath()),
			zap.String("code", body.Code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}
