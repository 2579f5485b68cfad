package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/sudo-init-do/artmaster/internal/access"
	"github.com/sudo-init-do/artmaster/internal/admin"
	"github.com/sudo-init-do/artmaster/internal/apperr"
	"github.com/sudo-init-do/artmaster/internal/auth"
	"github.com/sudo-init-do/artmaster/internal/catalog"
	"github.com/sudo-init-do/artmaster/internal/config"
	"github.com/sudo-init-do/artmaster/internal/marketplace"
	"github.com/sudo-init-do/artmaster/internal/middleware"
	"github.com/sudo-init-do/artmaster/internal/user"
	"github.com/sudo-init-do/artmaster/internal/validation"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the wired handlers and collaborators the router needs.
type Deps struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Catalog     *catalog.Handler
	Marketplace *marketplace.Handler
	Admin       *admin.Handler

	Tokens middleware.TokenParser
	Roles  middleware.RoleLoader
	Admins auth.RoleSetter
	DB     Pinger
}

// New builds the echo instance with middleware and every route registered.
func New(cfg *config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = errorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	e.Use(middleware.Authenticate(d.Tokens, d.Roles))

	registerRoutes(e, cfg, d)
	return e
}

func registerRoutes(e *echo.Echo, cfg *config.Config, d Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := d.DB.Ping(c.Request().Context()); err != nil {
			log.Printf("[ready] db ping failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "errors": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.AuthRateLimit))))
	authGroup.POST("/signup", d.Auth.Signup)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin(d.Admins, cfg.AdminBootstrapSecret))
	e.GET("/auth/me", d.Auth.Me, middleware.RequireAuth)

	e.GET("/users/subscriptions", d.Users.ListSubscriptions, middleware.RequireAuth)
	e.PATCH("/users/me", d.Users.UpdateMe, middleware.RequireAuth)
	e.GET("/users/:id", d.Users.GetProfile)
	e.POST("/users/:id/subscribe", d.Users.Subscribe)
	e.DELETE("/users/:id/subscribe", d.Users.Unsubscribe)

	e.GET("/tags", d.Catalog.ListTags)
	e.GET("/tags/:id", d.Catalog.GetTag)
	e.GET("/activities", d.Catalog.ListActivities)
	e.GET("/activities/:id", d.Catalog.GetActivity)

	m := d.Marketplace
	e.GET("/services", m.ListServices)
	e.POST("/services", m.CreateService, middleware.RequireRoles(access.RoleMaster, access.RoleAdmin))
	e.GET("/services/:id", m.GetService)
	e.PUT("/services/:id", m.ReplaceService)
	e.PATCH("/services/:id", m.PatchService)
	e.DELETE("/services/:id", m.DeleteService)
	e.POST("/services/:id/favorite", m.AddFavorite)
	e.DELETE("/services/:id/favorite", m.RemoveFavorite)

	e.GET("/services/:id/reviews", m.ListReviews)
	e.POST("/services/:id/reviews", m.CreateReview)
	e.GET("/services/:id/reviews/summary", m.ReviewSummary)
	e.GET("/services/:id/reviews/:review_id", m.GetReview)
	e.PATCH("/services/:id/reviews/:review_id", m.UpdateReview)
	e.DELETE("/services/:id/reviews/:review_id", m.DeleteReview)
	e.GET("/services/:id/reviews/:review_id/comments", m.ListComments)
	e.POST("/services/:id/reviews/:review_id/comments", m.CreateComment)
	e.GET("/services/:id/reviews/:review_id/comments/:comment_id", m.GetComment)
	e.PATCH("/services/:id/reviews/:review_id/comments/:comment_id", m.UpdateComment)
	e.DELETE("/services/:id/reviews/:review_id/comments/:comment_id", m.DeleteComment)

	adminGroup := e.Group("/admin", middleware.AdminGuard)
	adminGroup.GET("/stats", d.Admin.Stats)
	adminGroup.GET("/users", d.Admin.ListUsers)
	adminGroup.POST("/users/:id/role", d.Admin.SetUserRole)
	adminGroup.GET("/services", d.Admin.ListServices)
	adminGroup.POST("/tags", d.Catalog.CreateTag)
	adminGroup.POST("/activities", d.Catalog.CreateActivity)
}

// errorHandler renders echo's own errors (unknown route, bad JSON, rate
// limit) with the same {"errors": msg} body the handlers use.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			log.Printf("[error] %s %s: %v", c.Request().Method, c.Path(), err)
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, echo.Map{"errors": msg})
		}
		if err != nil {
			log.Printf("[error] writing error response: %v", err)
		}
		return
	}
	if err := apperr.Respond(c, err); err != nil {
		log.Printf("[error] writing error response: %v", err)
	}
}
