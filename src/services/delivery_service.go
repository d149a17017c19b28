package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/hook-expose/src/logging"
	"github.com/khabaroff/hook-expose/src/models"
)

// Headers added to every outbound delivery
const (
	DeliveryIDHeader = "X-Hook-Expose-Delivery"
	EventHeader      = "X-Hook-Expose-Event"
	SignatureHeader  = "X-Hook-Expose-Signature"
)

// OperationalLog receives free-form debug lines when debug_log is on
type OperationalLog interface {
	Log(line string)
}

// DeliveryService turns one event firing into one POST per webhook and
// records the outcome on the webhook.
type DeliveryService struct {
	webhooks       *WebhookService
	settings       *SettingsService
	poster         Poster
	oplog          OperationalLog
	signDeliveries bool
	now            func() time.Time
	logger         zerolog.Logger
}

// NewDeliveryService creates a delivery engine. oplog may be nil.
func NewDeliveryService(webhooks *WebhookService, settings *SettingsService, poster Poster, oplog OperationalLog) *DeliveryService {
	return &DeliveryService{
		webhooks: webhooks,
		settings: settings,
		poster:   poster,
		oplog:    oplog,
		now:      time.Now,
		logger:   logging.NewLogger("delivery"),
	}
}

// SetSignDeliveries enables the HMAC signature header when a secret is configured
func (ds *DeliveryService) SetSignDeliveries(enabled bool) {
	ds.signDeliveries = enabled
}

// Execute delivers args to the webhook stored under slug. It never returns an
// error and never panics: the event that triggered it has already happened.
func (ds *DeliveryService) Execute(ctx context.Context, slug string, args []any) {
	defer func() {
		if r := recover(); r != nil {
			ds.logger.Error().Str("slug", slug).Interface("panic", r).Msg("Delivery panicked")
		}
	}()

	// The POST is bounded by the client timeout, not by the firing request
	ctx = context.WithoutCancel(ctx)
	logger := ds.loggerFor(ctx)

	webhook, err := ds.webhooks.Get(ctx, slug)
	if errors.Is(err, ErrWebhookNotFound) {
		logger.Debug().Str("slug", slug).Msg("Webhook no longer exists, skipping delivery")
		if settings, serr := ds.settings.Get(ctx); serr == nil && settings.DebugLog {
			ds.debugf(fmt.Sprintf("webhook %q not found, delivery skipped", slug))
		}
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to load webhook")
		return
	}

	settings, err := ds.settings.Get(ctx)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to load settings")
		return
	}

	body, err := BuildPayload(webhook.BodyTemplate, args, settings.WebhookSecret)
	if err != nil {
		logger.Warn().Err(err).Str("slug", slug).Msg("Skipping delivery")
		if settings.DebugLog {
			ds.debugf(fmt.Sprintf("webhook %q: %v, delivery skipped", slug, err))
		}
		return
	}

	headers := map[string]string{
		DeliveryIDHeader: uuid.NewString(),
		EventHeader:      webhook.Event,
	}
	if ds.signDeliveries && settings.WebhookSecret != "" {
		headers[SignatureHeader] = SignPayload(settings.WebhookSecret, body)
	}

	if settings.DebugLog {
		ds.debugf(fmt.Sprintf("webhook %q: POST %s %s", slug, webhook.URL, body))
	}

	resp, postErr := ds.poster.Post(ctx, webhook.URL, body, headers)

	if settings.DebugLog {
		if postErr != nil {
			ds.debugf(fmt.Sprintf("webhook %q: error: %v", slug, postErr))
		} else {
			ds.debugf(fmt.Sprintf("webhook %q: response %d %s", slug, resp.StatusCode, resp.Body))
		}
	}

	if postErr != nil {
		resp = nil
		logger.Warn().Err(postErr).Str("slug", slug).Str("event", webhook.Event).Msg("Webhook delivery failed")
	} else {
		logger.Info().Str("slug", slug).Str("event", webhook.Event).Int("status_code", resp.StatusCode).Msg("Webhook delivered")
	}
	lastExecution := BuildLastExecution(settings.EffectiveRetention(), ds.now(), resp)

	_, err = ds.webhooks.Update(ctx, slug, models.WebhookPatch{LastExecution: lastExecution})
	switch {
	case errors.Is(err, ErrWebhookNotFound):
		logger.Debug().Str("slug", slug).Msg("Webhook deleted during delivery, outcome dropped")
	case err != nil:
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to record delivery outcome")
	}
}

// loggerFor prefers the request-scoped logger so delivery lines carry the request ID
func (ds *DeliveryService) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "delivery").Logger()
	}
	return ds.logger
}

func (ds *DeliveryService) debugf(line string) {
	if ds.oplog != nil {
		ds.oplog.Log(line)
	}
}

// BuildPayload returns the JSON body for one delivery: template fields, then
// the args envelope, then the secret. Later keys win. A nil args list is
// sent as an empty array.
func BuildPayload(template string, args []any, secret string) ([]byte, error) {
	fields := map[string]interface{}{}
	if strings.TrimSpace(template) != "" {
		decoded, err := decodeBodyTemplate(template)
		if err != nil {
			return nil, err
		}
		fields = decoded
	}

	if args == nil {
		args = []any{}
	}
	fields[models.ArgsField] = args
	if secret != "" {
		fields[models.SecretField] = secret
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return body, nil
}

// BuildLastExecution keeps only the retained fields of a delivery outcome.
// resp is nil when the request failed before a response arrived.
func BuildLastExecution(retention models.RetentionFields, at time.Time, resp *DeliveryResponse) *models.LastExecution {
	le := &models.LastExecution{}
	if retention.Has(models.RetainTimestamp) {
		ts := at.UTC()
		le.Timestamp = &ts
	}
	if retention.Has(models.RetainResponseStatusCode) && resp != nil {
		code := resp.StatusCode
		le.ResponseStatusCode = &code
	}
	return le
}

// SignPayload returns "sha256=<hex hmac>" of body keyed with secret
func SignPayload(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
