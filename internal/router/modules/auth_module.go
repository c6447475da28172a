package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saedev/sae-portal/internal/application"
	"github.com/saedev/sae-portal/internal/container"
	handlers "github.com/saedev/sae-portal/internal/interface/http"
	"github.com/saedev/sae-portal/internal/interface/middleware"
)

// AuthModule wires the credential endpoints and bearer-token middleware.
// Public: GET /api, POST /api/auth/register, POST /api/auth/login
// Protected: GET /api/auth/verify, GET/PUT /api/auth/profile,
// PUT /api/auth/password, PUT /api/auth/avatar

type AuthModule struct {
	Handler *handlers.AuthHandler
	Svc     *application.Service
}

func NewAuthModule(h *handlers.AuthHandler, svc *application.Service) *AuthModule {
	return &AuthModule{Handler: h, Svc: svc}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	rg.GET("", m.Handler.Root)
	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	// Protected
	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Svc))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/verify", m.Handler.Verify)
		auth.GET("/profile", m.Handler.Profile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/password", m.Handler.UpdatePassword)
		auth.PUT("/avatar", m.Handler.UpdateAvatar)
	}
}
