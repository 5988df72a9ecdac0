package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bodefavour/web3event/internal/middleware"
	"github.com/bodefavour/web3event/pkg/config"
	pkgmiddleware "github.com/bodefavour/web3event/pkg/middleware"
	"github.com/bodefavour/web3event/pkg/redis"
	"github.com/bodefavour/web3event/pkg/telemetry"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Events        *EventHandler
	Tickets       *TicketHandler
	Transactions  *TransactionHandler
	Notifications *NotificationHandler
	Users         *UserHandler
	Analytics     *AnalyticsHandler
	Health        *HealthHandler
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cfg *config.Config, cache *redis.Client, h *Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))

	r.GET("/health/live", h.Health.Live)
	r.GET("/health/ready", h.Health.Ready)

	idempotency := pkgmiddleware.Idempotency(cache, pkgmiddleware.DefaultIdempotencyConfig())
	auth := middleware.Auth(cfg.JWT)

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Users.Login)

		events := api.Group("/events")
		{
			events.GET("", h.Events.List)
			events.GET("/:id", h.Events.Get)
			events.POST("", auth, h.Events.Create)
			events.PUT("/:id", auth, h.Events.Update)
			events.DELETE("/:id", auth, h.Events.Delete)
			events.POST("/:id/favorite", auth, h.Events.Favorite)
			events.DELETE("/:id/favorite", auth, h.Events.Unfavorite)
			events.GET("/:id/tickets", auth, h.Tickets.ListByEvent)
		}

		tickets := api.Group("/tickets", auth)
		{
			tickets.POST("", idempotency, h.Tickets.Purchase)
			tickets.GET("", h.Tickets.List)
			tickets.GET("/:id", h.Tickets.Get)
			tickets.PUT("/:id/verify", h.Tickets.Verify)
		}

		transactions := api.Group("/transactions", auth)
		{
			transactions.POST("", idempotency, h.Transactions.Create)
			transactions.GET("", h.Transactions.List)
			transactions.GET("/:id", h.Transactions.Get)
			transactions.PUT("/:id/status", h.Transactions.UpdateStatus)
		}

		notifications := api.Group("/notifications", auth)
		{
			notifications.POST("", h.Notifications.Create)
			notifications.GET("", h.Notifications.List)
			notifications.PUT("/read-all", h.Notifications.MarkAllRead)
			notifications.PUT("/:id/read", h.Notifications.MarkRead)
			notifications.DELETE("/:id", h.Notifications.Delete)
		}

		users := api.Group("/users", auth)
		{
			users.GET("/me", h.Users.Me)
			users.PUT("/me", h.Users.UpdateMe)
		}

		analytics := api.Group("/analytics", auth)
		{
			analytics.GET("/events/:id", h.Analytics.EventAnalytics)
			analytics.GET("/host", h.Analytics.HostAnalytics)
		}
	}

	return r
}
