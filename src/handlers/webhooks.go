package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/services"
)

// WebhookHandler exposes the webhook registry to the admin layer
type WebhookHandler struct {
	webhooks *services.WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// CreateWebhookRequest is the body of POST /admin/webhooks.
// Slug is derived from Name when omitted.
type CreateWebhookRequest struct {
	Slug         string `json:"slug"`
	Name         string `json:"name" binding:"required"`
	Event        string `json:"event" binding:"required"`
	URL          string `json:"url" binding:"required"`
	BodyTemplate string `json:"body_template"`
}

// UpdateWebhookRequest is the body of PATCH /admin/webhooks/:slug
type UpdateWebhookRequest struct {
	Name         *string `json:"name"`
	Event        *string `json:"event"`
	URL          *string `json:"url"`
	BodyTemplate *string `json:"body_template"`
}

// HandleList returns all webhooks ordered by slug
func (wh *WebhookHandler) HandleList(c *gin.Context) {
	list, err := wh.webhooks.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]*models.Webhook, 0, len(list))
	for _, w := range list {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	c.JSON(http.StatusOK, gin.H{
		"webhooks": out,
		"count":    len(out),
	})
}

// HandleGet returns a single webhook
func (wh *WebhookHandler) HandleGet(c *gin.Context) {
	webhook, err := wh.webhooks.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, webhook)
}

// HandleCreate adds a webhook
func (wh *WebhookHandler) HandleCreate(c *gin.Context) {
	var req CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = services.Slugify(req.Name)
	}

	var opts []services.AddOption
	if req.BodyTemplate != "" {
		opts = append(opts, services.WithBodyTemplate(req.BodyTemplate))
	}

	webhook, err := wh.webhooks.Add(c.Request.Context(), slug, req.Name, req.Event, req.URL, opts...)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, webhook)
}

// HandleUpdate applies a partial update. The delivery outcome cannot be set here.
func (wh *WebhookHandler) HandleUpdate(c *gin.Context) {
	var req UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	patch := models.WebhookPatch{
		Name:         req.Name,
		Event:        req.Event,
		URL:          req.URL,
		BodyTemplate: req.BodyTemplate,
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no fields to update",
		})
		return
	}

	webhook, err := wh.webhooks.Update(c.Request.Context(), c.Param("slug"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, webhook)
}

// HandleDelete removes a webhook. Deleting an unknown slug succeeds.
func (wh *WebhookHandler) HandleDelete(c *gin.Context) {
	if err := wh.webhooks.Delete(c.Request.Context(), c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
		"slug":   c.Param("slug"),
	})
}
