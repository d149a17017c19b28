package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/hook-expose/src/services"
)

var errStoreNotConfigured = errors.New("config store not configured")

// respondServiceError maps service sentinels to HTTP status codes
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrWebhookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "webhook not found"})
	case errors.Is(err, services.ErrWebhookExists):
		c.JSON(http.StatusConflict, gin.H{"error": "webhook already exists"})
	case errors.Is(err, services.ErrInvalidSlug),
		errors.Is(err, services.ErrInvalidURL),
		errors.Is(err, services.ErrInvalidBodyTemplate),
		errors.Is(err, services.ErrInvalidRetentionField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
