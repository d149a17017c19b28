package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/repositories"
)

// SettingsService reads and writes the process-wide delivery settings.
// Nothing is cached: every Get goes to the store.
type SettingsService struct {
	repo      repositories.OptionRepository
	encryptor *Encryptor
}

// NewSettingsService creates a settings service that stores the secret in plain text
func NewSettingsService(repo repositories.OptionRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// NewSettingsServiceWithEncryption creates a settings service that encrypts
// the webhook secret at rest. A nil encryptor disables encryption.
func NewSettingsServiceWithEncryption(repo repositories.OptionRepository, enc *Encryptor) *SettingsService {
	return &SettingsService{repo: repo, encryptor: enc}
}

// EnsureInitialized stores the default settings if none exist yet
func (ss *SettingsService) EnsureInitialized(ctx context.Context) error {
	data, err := json.Marshal(models.DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	err = ss.repo.Create(ctx, models.OptionSettings, data)
	if err != nil && !errors.Is(err, repositories.ErrOptionExists) {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}
	return nil
}

// Get returns the current settings, or the defaults if none are stored
func (ss *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	data, err := ss.repo.Get(ctx, models.OptionSettings)
	if errors.Is(err, repositories.ErrOptionNotFound) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return models.DefaultSettings(), fmt.Errorf("failed to decode settings: %w", err)
	}

	secret, err := ss.encryptor.DecryptString(settings.WebhookSecret)
	if err != nil {
		return settings, err
	}
	settings.WebhookSecret = secret
	return settings, nil
}

// Update validates and stores settings. Duplicate retention fields are dropped;
// unknown ones fail with ErrInvalidRetentionField.
func (ss *SettingsService) Update(ctx context.Context, settings models.Settings) (models.Settings, error) {
	if settings.RetainLastExecutionData != nil {
		fields := make(models.RetentionFields, 0, len(settings.RetainLastExecutionData))
		for _, f := range settings.RetainLastExecutionData {
			if !models.IsKnownRetentionField(f) {
				return settings, fmt.Errorf("%w: %q", ErrInvalidRetentionField, f)
			}
			if !fields.Has(f) {
				fields = append(fields, f)
			}
		}
		settings.RetainLastExecutionData = fields
	}

	stored := settings
	secret, err := ss.encryptor.EncryptString(settings.WebhookSecret)
	if err != nil {
		return settings, fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	stored.WebhookSecret = secret

	data, err := json.Marshal(stored)
	if err != nil {
		return settings, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := ss.repo.Set(ctx, models.OptionSettings, data); err != nil {
		return settings, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// Purge deletes the settings from the store. Irreversible.
func (ss *SettingsService) Purge(ctx context.Context) error {
	if err := ss.repo.Delete(ctx, models.OptionSettings); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}
