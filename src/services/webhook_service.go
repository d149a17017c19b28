package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/repositories"
)

// webhookCollection is the document stored under models.OptionWebhooks
type webhookCollection struct {
	Webhooks map[string]*models.Webhook `json:"webhooks"`
}

// AddOption customizes a webhook before it is stored by Add
type AddOption func(*models.Webhook) error

// WithBodyTemplate attaches a JSON object template merged into every payload
func WithBodyTemplate(template string) AddOption {
	return func(w *models.Webhook) error {
		if err := ValidateBodyTemplate(template); err != nil {
			return err
		}
		w.BodyTemplate = strings.TrimSpace(template)
		return nil
	}
}

// WebhookService is the webhook registry. Every mutation reads the whole
// collection, changes it and writes it back. There is no locking: concurrent
// writers are last-write-wins.
type WebhookService struct {
	repo repositories.OptionRepository
	now  func() time.Time
}

// NewWebhookService creates a registry on top of the given config store
func NewWebhookService(repo repositories.OptionRepository) *WebhookService {
	return &WebhookService{repo: repo, now: time.Now}
}

// EnsureInitialized creates an empty collection if none is stored yet.
// Existing data is never touched.
func (ws *WebhookService) EnsureInitialized(ctx context.Context) error {
	data, err := json.Marshal(webhookCollection{Webhooks: map[string]*models.Webhook{}})
	if err != nil {
		return fmt.Errorf("failed to encode webhook collection: %w", err)
	}

	err = ws.repo.Create(ctx, models.OptionWebhooks, data)
	if err != nil && !errors.Is(err, repositories.ErrOptionExists) {
		return fmt.Errorf("failed to initialize webhooks: %w", err)
	}
	return nil
}

// List returns all webhooks keyed by slug
func (ws *WebhookService) List(ctx context.Context) (map[string]*models.Webhook, error) {
	coll, err := ws.load(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Webhooks, nil
}

// Get returns a single webhook
func (ws *WebhookService) Get(ctx context.Context, slug string) (*models.Webhook, error) {
	coll, err := ws.load(ctx)
	if err != nil {
		return nil, err
	}
	wh, ok := coll.Webhooks[slug]
	if !ok {
		return nil, ErrWebhookNotFound
	}
	return wh, nil
}

// Add stores a new webhook. The slug must already be in Slugify form so it
// can be addressed as a single path segment. A taken slug fails with
// ErrWebhookExists and leaves the registry unchanged.
func (ws *WebhookService) Add(ctx context.Context, slug, name, event, rawURL string, opts ...AddOption) (*models.Webhook, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || Slugify(slug) != slug {
		return nil, ErrInvalidSlug
	}

	coll, err := ws.load(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := coll.Webhooks[slug]; exists {
		return nil, ErrWebhookExists
	}

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	wh := &models.Webhook{
		Slug:      slug,
		Name:      SanitizeText(name),
		Event:     SanitizeText(event),
		URL:       normalized,
		CreatedAt: ws.now().UTC(),
	}
	for _, opt := range opts {
		if err := opt(wh); err != nil {
			return nil, err
		}
	}

	coll.Webhooks[slug] = wh
	if err := ws.save(ctx, coll); err != nil {
		return nil, err
	}
	return wh.Clone(), nil
}

// Update merges patch into an existing webhook. Fields left nil in the patch
// keep their stored value.
func (ws *WebhookService) Update(ctx context.Context, slug string, patch models.WebhookPatch) (*models.Webhook, error) {
	coll, err := ws.load(ctx)
	if err != nil {
		return nil, err
	}
	wh, ok := coll.Webhooks[slug]
	if !ok {
		return nil, ErrWebhookNotFound
	}

	if patch.Name != nil {
		wh.Name = SanitizeText(*patch.Name)
	}
	if patch.Event != nil {
		wh.Event = SanitizeText(*patch.Event)
	}
	if patch.URL != nil {
		normalized, err := NormalizeURL(*patch.URL)
		if err != nil {
			return nil, err
		}
		wh.URL = normalized
	}
	if patch.BodyTemplate != nil {
		if err := ValidateBodyTemplate(*patch.BodyTemplate); err != nil {
			return nil, err
		}
		wh.BodyTemplate = strings.TrimSpace(*patch.BodyTemplate)
	}
	if patch.LastExecution != nil {
		le := *patch.LastExecution
		wh.LastExecution = &le
	}

	if err := ws.save(ctx, coll); err != nil {
		return nil, err
	}
	return wh.Clone(), nil
}

// Delete removes a webhook. Deleting an unknown slug is a no-op.
func (ws *WebhookService) Delete(ctx context.Context, slug string) error {
	coll, err := ws.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := coll.Webhooks[slug]; !ok {
		return nil
	}
	delete(coll.Webhooks, slug)
	return ws.save(ctx, coll)
}

// Purge deletes the whole collection from the store. Irreversible.
func (ws *WebhookService) Purge(ctx context.Context) error {
	if err := ws.repo.Delete(ctx, models.OptionWebhooks); err != nil {
		return fmt.Errorf("failed to delete webhooks: %w", err)
	}
	return nil
}

func (ws *WebhookService) load(ctx context.Context) (*webhookCollection, error) {
	coll := &webhookCollection{}

	data, err := ws.repo.Get(ctx, models.OptionWebhooks)
	switch {
	case errors.Is(err, repositories.ErrOptionNotFound):
		// not initialized yet
	case err != nil:
		return nil, fmt.Errorf("failed to read webhooks: %w", err)
	default:
		if err := json.Unmarshal(data, coll); err != nil {
			return nil, fmt.Errorf("failed to decode webhooks: %w", err)
		}
	}

	if coll.Webhooks == nil {
		coll.Webhooks = map[string]*models.Webhook{}
	}
	for slug, wh := range coll.Webhooks {
		if wh == nil {
			delete(coll.Webhooks, slug)
			continue
		}
		wh.Slug = slug
	}
	return coll, nil
}

func (ws *WebhookService) save(ctx context.Context, coll *webhookCollection) error {
	data, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("failed to encode webhooks: %w", err)
	}
	if err := ws.repo.Set(ctx, models.OptionWebhooks, data); err != nil {
		return fmt.Errorf("failed to save webhooks: %w", err)
	}
	return nil
}
