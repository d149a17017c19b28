package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/hook-expose/src/services"
)

// SubscriptionHandler shows and reloads the event routing table
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// HandleList returns event name -> bound slugs
func (sh *SubscriptionHandler) HandleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bindings": sh.subscriptions.Bindings(),
	})
}

// HandleReload rebuilds the routing table from the registry so webhook
// changes take effect without a restart
func (sh *SubscriptionHandler) HandleReload(c *gin.Context) {
	count, err := sh.subscriptions.Activate(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload subscriptions")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to reload subscriptions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "reloaded",
		"webhooks": count,
		"bindings": sh.subscriptions.Bindings(),
	})
}
