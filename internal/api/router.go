package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/auth"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/handlers"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/middleware"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/security"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/services"
)

// Dependencies carries the shared services the router wires together.
type Dependencies struct {
	DB           *gorm.DB
	Cache        *cache.Cache
	Auth         *auth.Service
	Recorder     *security.Recorder
	Testimonials *services.TestimonialService
	Contact      *services.ContactService
}

// Options tunes the HTTP surface without touching the services.
type Options struct {
	AllowedOrigins []string

	// Global per-IP-and-route budget. Zero disables the limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateStore         middleware.RateStore

	// Tighter budget for the public submission endpoints.
	SubmitLimitRequests int
	SubmitLimitWindow   time.Duration

	SessionCookieMaxAge int
	SecureCookies       bool
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies, opts Options) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service must be provided")
	}
	if deps.Testimonials == nil {
		return nil, fmt.Errorf("testimonial service must be provided")
	}
	if deps.Contact == nil {
		return nil, fmt.Errorf("contact service must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	store := opts.RateStore
	if store == nil {
		store = middleware.NewMemoryRateStore()
	}
	if opts.RateLimitRequests > 0 {
		r.Use(middleware.RateLimit(store, opts.RateLimitRequests, opts.RateLimitWindow))
	}

	submitLimit := func() gin.HandlerFunc {
		if opts.SubmitLimitRequests <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(store, opts.SubmitLimitRequests, opts.SubmitLimitWindow)
	}()

	r.NoRoute(staticHandler())

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Auth, opts.SessionCookieMaxAge, opts.SecureCookies)
	testimonialHandler := handlers.NewTestimonialHandler(deps.Testimonials)
	contactHandler := handlers.NewContactHandler(deps.Contact)
	cacheHandler := handlers.NewCacheAdminHandler(deps.Cache)

	public := r.Group("/api")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/logout", authHandler.Logout)

		public.GET("/testimonials", testimonialHandler.ListApproved)
		public.POST("/testimonials", submitLimit, testimonialHandler.Submit)

		public.POST("/contact", submitLimit, contactHandler.Submit)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.SessionAuth(deps.Auth))
	admin.Use(middleware.CSRF())
	{
		admin.GET("/me", authHandler.Me)

		admin.GET("/testimonials", testimonialHandler.List)
		admin.POST("/testimonials/:id/approve", testimonialHandler.Approve)
		admin.PUT("/testimonials/:id", testimonialHandler.Update)
		admin.DELETE("/testimonials/:id", testimonialHandler.Delete)

		admin.GET("/messages", contactHandler.List)
		admin.GET("/messages/unread", contactHandler.UnreadCount)
		admin.GET("/messages/:id", contactHandler.Get)
		admin.POST("/messages/:id/read", contactHandler.MarkRead)
		admin.DELETE("/messages/:id", contactHandler.Delete)

		admin.GET("/cache/stats", cacheHandler.Stats)

		// Destructive cache operations and the security log are admin-only;
		// moderators get everything above.
		adminOnly := admin.Group("")
		adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminOnly.POST("/cache/flush", cacheHandler.Flush)
			adminOnly.DELETE("/cache/types/:type", cacheHandler.ClearType)

			if deps.Recorder != nil {
				securityHandler := handlers.NewSecurityHandler(deps.Recorder)
				adminOnly.GET("/security/events", securityHandler.Events)
			}
		}
	}

	return r, nil
}
