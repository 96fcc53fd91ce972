package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/application"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

type AuthHandler struct {
	Base
	Svc *application.AuthService
	JWT *helpers.JWTManager
}

func NewAuthHandler(base Base, svc *application.AuthService, jwt *helpers.JWTManager) *AuthHandler {
	return &AuthHandler{Base: base, Svc: svc, JWT: jwt}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,pwd,max=72"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd,max=72"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, res, "User registered successfully", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res, "Login successful", nil)
}

// Refresh POST /api/auth/refresh-token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"tokens": pair}, "Token refreshed successfully", nil)
}

// Logout POST /api/auth/logout. Tokens are stateless; the client drops them.
func (h *AuthHandler) Logout(c *gin.Context) {
	ok[any](c, http.StatusOK, nil, "Logout successful", nil)
}

// VerifyToken GET /api/auth/verify-token
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	res := gin.H{"valid": true, "userId": actor(c), "email": c.GetString(middleware.CtxUserEmail)}
	if claims, err := h.JWT.ParseAccessToken(middleware.BearerToken(c)); err == nil && claims.ExpiresAt != nil {
		res["expiresAt"] = claims.ExpiresAt.Time
	}
	ok(c, http.StatusOK, res, "Token is valid", nil)
}

// GetProfile GET /api/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": u}, "Profile retrieved successfully", nil)
}

// UpdateProfile PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), actor(c), application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": u}, "Profile updated successfully", nil)
}

// ChangePassword POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), actor(c), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	ok[any](c, http.StatusOK, nil, "Password changed successfully", nil)
}
