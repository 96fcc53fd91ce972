package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/issue-tracker-api/internal/interface/http"
)

// AuthModule wires account routes.
// Public: POST /api/auth/register, /api/auth/login, /api/auth/refresh-token
// Protected: profile, password, logout and token verification
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
	// Public limits register and login per IP
	Public gin.HandlerFunc
	// Refresh limits token refresh per IP
	Refresh gin.HandlerFunc
	// API limits protected routes per user
	API gin.HandlerFunc
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", m.Public, m.Handler.Register)
	rg.POST("/auth/login", m.Public, m.Handler.Login)
	rg.POST("/auth/refresh-token", m.Refresh, m.Handler.Refresh)

	auth := rg.Group("/auth")
	auth.Use(m.Auth, m.API)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/change-password", m.Handler.ChangePassword)
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/verify-token", m.Handler.VerifyToken)
	}
}
