package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"nexus-response-backend/config"
	"nexus-response-backend/internal/auth"
	"nexus-response-backend/internal/intake"
	"nexus-response-backend/internal/mw"
	"nexus-response-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, intakeSvc *intake.Service, tokens *auth.TokenIssuer, webpushOptions *webpush.Options, server config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, intakeSvc, tokens, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(server.RateLimitPerSec), server.RateLimitBurst)

	cacheTTL := time.Duration(server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/incidents/telemetry", handler.PostTelemetry)
		api.POST("/incidents/manual", handler.PostManualIncident)
		api.GET("/incidents", handler.ListIncidents)
		api.GET("/incidents/:id", handler.GetIncident)
		api.GET("/incidents/:id/urgency", handler.GetIncidentUrgency)
		api.POST("/incidents/:id/comment", handler.PostComment)

		// The dashboard reads persisted state directly; only the device
		// status listing is served from cache.
		api.GET("/stats/dashboard", handler.GetDashboard)
		api.GET("/stats/history/incident/:id", handler.GetIncidentHistory)

		api.GET("/devices/status", caching, handler.ListDeviceStatus)
		api.POST("/devices", handler.RegisterDevice)
		api.PUT("/devices/:id/status", handler.UpdateDeviceStatus)

		api.GET("/users", handler.ListUsers)
		api.GET("/users/:id", handler.GetUser)
		api.POST("/users", handler.CreateUser)
		api.PUT("/users/:id", handler.UpdateUser)
		api.DELETE("/users/:id", handler.DeleteUser)

		api.POST("/auth/login", handler.Login)
		api.POST("/auth/register", handler.Register)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
