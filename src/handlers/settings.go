package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/services"
)

// SettingsHandler reads and writes delivery settings
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// UpdateSettingsRequest is the body of PUT /admin/settings. Omitted fields
// keep their current value; retain_last_execution_data [] retains nothing.
type UpdateSettingsRequest struct {
	WebhookSecret           *string   `json:"webhook_secret"`
	DebugLog                *bool     `json:"debug_log"`
	RetainLastExecutionData *[]string `json:"retain_last_execution_data"`
}

// settingsResponse never echoes the secret itself
func settingsResponse(s models.Settings) gin.H {
	return gin.H{
		"webhook_secret_set":         s.WebhookSecret != "",
		"debug_log":                  s.DebugLog,
		"retain_last_execution_data": s.EffectiveRetention(),
	}
}

// HandleGet returns the current settings
func (sh *SettingsHandler) HandleGet(c *gin.Context) {
	settings, err := sh.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse(settings))
}

// HandleUpdate merges the request into the stored settings
func (sh *SettingsHandler) HandleUpdate(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	settings, err := sh.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if req.WebhookSecret != nil {
		settings.WebhookSecret = *req.WebhookSecret
	}
	if req.DebugLog != nil {
		settings.DebugLog = *req.DebugLog
	}
	if req.RetainLastExecutionData != nil {
		settings.RetainLastExecutionData = append(models.RetentionFields{}, *req.RetainLastExecutionData...)
	}

	saved, err := sh.settings.Update(c.Request.Context(), settings)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse(saved))
}
