package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/park285/guesswho/pkg/guessdto"
)

const (
	ctxIdentity  = "identity"
	headerUserID = "X-User-Id"
)

// Identity resolves the caller from an HS256 bearer token whose subject is the
// user id. With an empty secret the X-User-Id header is trusted instead.
// Websocket clients may pass the token as ?access_token=.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if secret == "" {
			id = strings.TrimSpace(c.GetHeader(headerUserID))
		} else {
			sub, err := subject(bearer(c), secret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, guessdto.ErrorResponse{Error: "bad token", Code: "unauthenticated"})
				return
			}
			id = sub
		}
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, guessdto.ErrorResponse{Error: "not authorized", Code: "unauthenticated"})
			return
		}
		c.Set(ctxIdentity, id)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.Query("access_token"))
}

func subject(token, secret string) (string, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sub), nil
}

func identity(c *gin.Context) string {
	return c.GetString(ctxIdentity)
}
