package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saedev/sae-portal/internal/application"
	"github.com/saedev/sae-portal/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

// Auth validates the Authorization bearer token and confirms the subject
// still exists, so tokens for removed accounts die lazily without a
// revocation list. The loaded user is stored in the context for handlers.
func Auth(svc *application.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortDetail(c, http.StatusUnauthorized, "No token provided")
			return
		}

		uid, err := svc.VerifyToken(token)
		if err != nil {
			response.AbortDetail(c, http.StatusUnauthorized, err.Error())
			return
		}

		u, err := svc.GetProfile(c.Request.Context(), uid)
		if err != nil {
			response.AbortDetail(c, http.StatusUnauthorized, application.ErrUserNotFound.Error())
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
