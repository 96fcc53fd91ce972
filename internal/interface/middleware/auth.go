package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUserName  = "userName"
)

// Authenticator resolves an access token to a live user
// (application.AuthService).
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*entity.User, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth requires a valid access token whose subject still exists.
// It sets userID, userEmail and userName in the Gin context on success.
func Auth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "Access token is required", nil)
			return
		}
		u, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if ae, ok := apperror.As(err); ok && ae.Kind == apperror.KindAuthentication {
				response.Abort(c, http.StatusUnauthorized, ae.Message, nil)
				return
			}
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
		c.Set(CtxUserID, u.ID)
		c.Set(CtxUserEmail, u.Email)
		c.Set(CtxUserName, u.FullName())
		c.Next()
	}
}
