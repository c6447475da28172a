package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/saedev/sae-portal/internal/application"
	"github.com/saedev/sae-portal/internal/domain/entity"
	"github.com/saedev/sae-portal/internal/interface/middleware"
	"github.com/saedev/sae-portal/pkg/response"
	"github.com/saedev/sae-portal/pkg/validation"
)

const apiBanner = "SAE API - Sistema de Autenticación Educativa"

type AuthHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,uname"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// loginRequest carries no binding tags: a blank email or password is simply
// a credential that matches no account, and must fail with the same 401 as
// any other bad credential.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

type loginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	User        entity.PublicUser `json:"user"`
}

// Root GET /api
func (h *AuthHandler) Root(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"message": apiBanner})
}

// bindError answers a failed ShouldBindJSON. Tag failures on known fields
// map onto the same messages the service layer produces, so callers see one
// vocabulary no matter which layer rejected the input; anything else
// (malformed JSON, unexpected fields) falls back to the detail map.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := bindMessage(verrs[0].Field()); ok {
			response.Detail(c, http.StatusBadRequest, msg)
			return
		}
	}
	response.DetailWith(c, http.StatusBadRequest, "Invalid request payload", validation.ToDetails(err))
}

func bindMessage(field string) (string, bool) {
	switch field {
	case "username":
		return "Username must be between 3 and 50 characters", true
	case "email":
		return "Email is required", true
	case "password":
		return "Password must be at least 6 characters", true
	case "new_password":
		return "New password must be at least 6 characters", true
	case "avatar":
		return "Avatar is required", true
	}
	return "", false
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, u.PublicView())
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	token, _, u, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        u.PublicView(),
	})
}

// Verify GET /api/auth/verify and Profile GET /api/auth/profile both
// return the authenticated user loaded by the middleware.
func (h *AuthHandler) Verify(c *gin.Context) {
	h.currentUser(c)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	h.currentUser(c)
}

func (h *AuthHandler) currentUser(c *gin.Context) {
	v, ok := c.Get(middleware.CtxUserKey)
	if !ok {
		response.Detail(c, http.StatusUnauthorized, application.ErrUserNotFound.Error())
		return
	}
	u, ok := v.(*entity.User)
	if !ok {
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	response.JSON(c, http.StatusOK, u.PublicView())
}

// UpdateProfile PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, u.PublicView())
}

// UpdatePassword PUT /api/auth/password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.UpdatePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// UpdateAvatar PUT /api/auth/avatar
func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	var req updateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.UpdateAvatar(c.Request.Context(), uid, req.Avatar); err != nil {
		h.writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "Avatar updated successfully",
		"avatar":  req.Avatar,
	})
}

// writeError maps service errors onto the portal's status codes: 400 for
// validation and conflicts, 401 for credential failures, 500 for anything
// the caller should not see the detail of.
func (h *AuthHandler) writeError(c *gin.Context, err error) {
	var verr *application.ValidationError
	var cerr *application.ConflictError
	switch {
	case errors.As(err, &verr):
		response.Detail(c, http.StatusBadRequest, verr.Detail)
	case errors.As(err, &cerr):
		response.Detail(c, http.StatusBadRequest, cerr.Detail)
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrTokenExpired),
		errors.Is(err, application.ErrTokenInvalid),
		errors.Is(err, application.ErrUserNotFound):
		response.Detail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, application.ErrWrongPassword):
		response.Detail(c, http.StatusBadRequest, err.Error())
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		response.Detail(c, http.StatusInternalServerError, "Internal server error")
	}
}
