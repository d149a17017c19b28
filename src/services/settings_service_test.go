package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/repositories"
	"github.com/khabaroff/hook-expose/src/repositories/mock"
)

func TestSettingsService_Defaults(t *testing.T) {
	ctx := context.Background()

	t.Run("absent settings return defaults", func(t *testing.T) {
		ss := NewSettingsService(repositories.NewMemoryOptionRepository())

		settings, err := ss.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, settings.WebhookSecret)
		assert.False(t, settings.DebugLog)
		assert.Equal(t, models.DefaultRetention, settings.EffectiveRetention())
	})

	t.Run("ensure initialized writes defaults once", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		ss := NewSettingsService(repo)

		require.NoError(t, ss.EnsureInitialized(ctx))
		_, err := ss.Update(ctx, models.Settings{WebhookSecret: "abc"})
		require.NoError(t, err)
		require.NoError(t, ss.EnsureInitialized(ctx))

		settings, err := ss.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "abc", settings.WebhookSecret)
	})

	t.Run("stored null retention means default set", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		require.NoError(t, repo.Set(ctx, models.OptionSettings, []byte(`{"webhook_secret":"","debug_log":true,"retain_last_execution_data":null}`)))

		settings, err := NewSettingsService(repo).Get(ctx)
		require.NoError(t, err)
		assert.True(t, settings.DebugLog)
		assert.Equal(t, models.DefaultRetention, settings.EffectiveRetention())
	})

	t.Run("stored empty retention keeps nothing", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		require.NoError(t, repo.Set(ctx, models.OptionSettings, []byte(`{"retain_last_execution_data":[]}`)))

		settings, err := NewSettingsService(repo).Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, settings.EffectiveRetention())
		assert.NotNil(t, settings.EffectiveRetention())
	})
}

func TestSettingsService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("deduplicates retention fields", func(t *testing.T) {
		ss := NewSettingsService(repositories.NewMemoryOptionRepository())

		saved, err := ss.Update(ctx, models.Settings{
			RetainLastExecutionData: models.RetentionFields{"timestamp", "timestamp"},
		})
		require.NoError(t, err)
		assert.Equal(t, models.RetentionFields{"timestamp"}, saved.RetainLastExecutionData)

		settings, err := ss.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.RetentionFields{"timestamp"}, settings.RetainLastExecutionData)
	})

	t.Run("rejects unknown retention field", func(t *testing.T) {
		repo := mock.NewOptionRepository()
		ss := NewSettingsService(repo)

		_, err := ss.Update(ctx, models.Settings{
			RetainLastExecutionData: models.RetentionFields{"response_body"},
		})
		assert.ErrorIs(t, err, ErrInvalidRetentionField)
		assert.Empty(t, repo.Calls["Set"])
	})

	t.Run("store failure is returned", func(t *testing.T) {
		repo := mock.NewOptionRepository()
		repo.SetFunc = func(ctx context.Context, key string, value []byte) error {
			return errors.New("boom")
		}

		_, err := NewSettingsService(repo).Update(ctx, models.Settings{})
		assert.Error(t, err)
	})

	t.Run("corrupt stored settings fail to decode", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		require.NoError(t, repo.Set(ctx, models.OptionSettings, []byte(`{"debug_log":"yes"}`)))

		_, err := NewSettingsService(repo).Get(ctx)
		assert.Error(t, err)
	})
}

func TestSettingsService_Encryption(t *testing.T) {
	ctx := context.Background()
	enc, err := NewEncryptor(strings.Repeat("ab", 32))
	require.NoError(t, err)

	t.Run("secret is encrypted at rest and decrypted on read", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		ss := NewSettingsServiceWithEncryption(repo, enc)

		_, err := ss.Update(ctx, models.Settings{WebhookSecret: "s3cret"})
		require.NoError(t, err)

		raw, err := repo.Get(ctx, models.OptionSettings)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "s3cret")
		assert.Contains(t, string(raw), encryptedPrefix)

		settings, err := ss.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "s3cret", settings.WebhookSecret)
	})

	t.Run("plain secret from before encryption is still readable", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		require.NoError(t, NewSettingsService(repo).EnsureInitialized(ctx))
		_, err := NewSettingsService(repo).Update(ctx, models.Settings{WebhookSecret: "legacy"})
		require.NoError(t, err)

		settings, err := NewSettingsServiceWithEncryption(repo, enc).Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "legacy", settings.WebhookSecret)
	})

	t.Run("encrypted secret without key is unreadable", func(t *testing.T) {
		repo := repositories.NewMemoryOptionRepository()
		_, err := NewSettingsServiceWithEncryption(repo, enc).Update(ctx, models.Settings{WebhookSecret: "s3cret"})
		require.NoError(t, err)

		_, err = NewSettingsService(repo).Get(ctx)
		assert.ErrorIs(t, err, ErrSecretUnreadable)
	})
}

func TestSettingsService_Purge(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryOptionRepository()
	ss := NewSettingsService(repo)
	require.NoError(t, ss.EnsureInitialized(ctx))

	require.NoError(t, ss.Purge(ctx))

	_, err := repo.Get(ctx, models.OptionSettings)
	assert.ErrorIs(t, err, repositories.ErrOptionNotFound)
}
