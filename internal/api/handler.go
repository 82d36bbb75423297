package api

import (
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"nexus-response-backend/internal/auth"
	"nexus-response-backend/internal/intake"
	"nexus-response-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	intake  *intake.Service
	tokens  *auth.TokenIssuer
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, intakeSvc *intake.Service, tokens *auth.TokenIssuer, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		intake:  intakeSvc,
		tokens:  tokens,
		webpush: webpushOptions,
	}
}

// internalError logs the failure and answers with a generic message. Driver
// and storage error detail never crosses the trust boundary.
func internalError(c *gin.Context, err error) {
	log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
