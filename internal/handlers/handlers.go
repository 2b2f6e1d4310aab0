package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eshop/internal/config"
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/security"
	"eshop/internal/service"
)

type UserService interface {
	Signup(ctx context.Context, input service.SignupInput) (models.User, error)
	ResendActivation(ctx context.Context, email string) error
	Activate(ctx context.Context, token string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateInfo(ctx context.Context, userID string, input service.UpdateInfoInput) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, dataURI string) (models.User, error)
	UpsertAddress(ctx context.Context, userID string, address models.Address) (models.User, error)
	DeleteAddress(ctx context.Context, userID string, addressID string) (models.User, error)
	ChangePassword(ctx context.Context, userID string, input service.ChangePasswordInput) error
	GetPublic(ctx context.Context, id string) (models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

type Sessions interface {
	ParseSessionToken(token string) (*security.SessionClaims, error)
	SessionTTL() time.Duration
}

// HealthChecker is a dependency reported by /healthz.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	cookie      cookieSettings
	rateLimit   config.RateLimitConfig
	users       UserService
	sessions    Sessions
	checks      map[string]HealthChecker
}

func NewHandlerSet(log zerolog.Logger, cfg *config.Config, users UserService, sessions Sessions, checks map[string]HealthChecker) HandlerSet {
	return HandlerSet{
		log:         log,
		environment: cfg.Environment,
		cookie: cookieSettings{
			name:   cfg.Security.CookieName,
			secure: cfg.Security.CookieSecure,
			maxAge: sessions.SessionTTL(),
		},
		rateLimit: cfg.RateLimit,
		users:     users,
		sessions:  sessions,
		checks:    checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	throttle := middleware.RateLimit(h.rateLimit.PerSecond, h.rateLimit.Burst)
	auth := middleware.Auth(h.cookie.name, h.sessions, h.users)

	user := router.Group("/v2/user")
	{
		user.POST("/create-user", throttle, h.CreateUser)
		user.POST("/resend-activation", throttle, h.ResendActivation)
		user.POST("/activation", h.Activate)
		user.POST("/login-user", throttle, h.Login)
		user.GET("/logout", h.Logout)
		user.GET("/user-info/:id", h.UserInfo)

		protected := user.Group("")
		protected.Use(auth)
		protected.GET("/getuser", h.GetUser)
		protected.PUT("/update-user-info", h.UpdateUserInfo)
		protected.PUT("/update-avatar", h.UpdateAvatar)
		protected.PUT("/update-user-addresses", h.UpdateAddresses)
		protected.DELETE("/delete-user-address/:id", h.DeleteAddress)
		protected.PUT("/update-user-password", h.UpdatePassword)

		admin := user.Group("")
		admin.Use(auth, middleware.RequireRoles(models.UserRoleAdmin))
		admin.GET("/admin-all-users", h.AdminListUsers)
		admin.DELETE("/delete-user/:id", h.AdminDeleteUser)
	}
}
