package services

import (
	"context"
	"errors"
)

// UninstallService removes everything hook-expose stored. There is no backup.
type UninstallService struct {
	webhooks *WebhookService
	settings *SettingsService
}

// NewUninstallService creates an uninstall service
func NewUninstallService(webhooks *WebhookService, settings *SettingsService) *UninstallService {
	return &UninstallService{webhooks: webhooks, settings: settings}
}

// Uninstall deletes the webhook collection and the settings. Both deletions
// are attempted even if the first one fails.
func (us *UninstallService) Uninstall(ctx context.Context) error {
	return errors.Join(
		us.webhooks.Purge(ctx),
		us.settings.Purge(ctx),
	)
}
