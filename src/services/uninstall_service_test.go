package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/repositories"
	"github.com/khabaroff/hook-expose/src/repositories/mock"
)

func TestUninstallService_Uninstall(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes both keys", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		webhooks := NewWebhookService(repo)
		settings := NewSettingsService(repo)
		require.NoError(t, webhooks.EnsureInitialized(ctx))
		require.NoError(t, settings.EnsureInitialized(ctx))

		require.NoError(t, NewUninstallService(webhooks, settings).Uninstall(ctx))

		_, err := repo.Get(ctx, models.OptionWebhooks)
		assert.ErrorIs(t, err, repositories.ErrOptionNotFound)
		_, err = repo.Get(ctx, models.OptionSettings)
		assert.ErrorIs(t, err, repositories.ErrOptionNotFound)
	})

	t.Run("attempts both deletions when one fails", func(t *testing.T) {
		repo := mock.NewOptionRepository()
		repo.DeleteFunc = func(ctx context.Context, key string) error {
			if key == models.OptionWebhooks {
				return errors.New("locked")
			}
			return nil
		}

		err := NewUninstallService(NewWebhookService(repo), NewSettingsService(repo)).Uninstall(ctx)

		assert.Error(t, err)
		assert.Equal(t, []interface{}{models.OptionWebhooks, models.OptionSettings}, repo.Calls["Delete"])
	})
}
