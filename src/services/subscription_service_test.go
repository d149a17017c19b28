package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/hook-expose/src/events"
	"github.com/khabaroff/hook-expose/src/models"
	"github.com/khabaroff/hook-expose/src/repositories"
)

type execution struct {
	Slug string
	Args []any
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []execution
	panic bool
}

func (e *recordingExecutor) Execute(ctx context.Context, slug string, args []any) {
	e.mu.Lock()
	e.calls = append(e.calls, execution{Slug: slug, Args: args})
	e.mu.Unlock()
	if e.panic {
		panic("delivery failed badly")
	}
}

func (e *recordingExecutor) Calls() []execution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]execution(nil), e.calls...)
}

type failingLister struct{}

func (failingLister) List(ctx context.Context) (map[string]*models.Webhook, error) {
	return nil, errors.New("store offline")
}

// snapshotLister returns snapshots in call order; the first call blocks until release is closed
type snapshotLister struct {
	mu        sync.Mutex
	calls     int
	snapshots []map[string]*models.Webhook
	entered   chan struct{}
	release   chan struct{}
}

func (l *snapshotLister) List(ctx context.Context) (map[string]*models.Webhook, error) {
	l.mu.Lock()
	n := l.calls
	l.calls++
	l.mu.Unlock()

	if n == 0 {
		close(l.entered)
		<-l.release
	}
	return l.snapshots[n], nil
}

func TestSubscriptionService_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("zero webhooks is a no-op", func(t *testing.T) {
		bus := events.NewDispatcher()
		ss := NewSubscriptionService(NewWebhookService(repositories.NewMemoryOptionRepository()), bus, &recordingExecutor{})

		n, err := ss.Activate(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, bus.Events())
		assert.Empty(t, ss.Bindings())
	})

	t.Run("routes fired events with args unchanged", func(t *testing.T) {
		webhooks, _ := newTestWebhookService(t)
		_, err := webhooks.Add(ctx, "b-second", "B", "post_saved", "https://b.example.com")
		require.NoError(t, err)
		_, err = webhooks.Add(ctx, "a-first", "A", "post_saved", "https://a.example.com")
		require.NoError(t, err)
		_, err = webhooks.Add(ctx, "other", "O", "user_registered", "https://o.example.com")
		require.NoError(t, err)

		bus := events.NewDispatcher()
		exec := &recordingExecutor{}
		ss := NewSubscriptionService(webhooks, bus, exec)

		n, err := ss.Activate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, map[string][]string{
			"post_saved":      {"a-first", "b-second"},
			"user_registered": {"other"},
		}, ss.Bindings())

		post := map[string]any{"id": 42}
		bus.Fire(ctx, "post_saved", post, "draft", 3)

		calls := exec.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "a-first", calls[0].Slug)
		assert.Equal(t, "b-second", calls[1].Slug)
		assert.Equal(t, []any{post, "draft", 3}, calls[0].Args)
	})

	t.Run("unknown events are accepted and never fire", func(t *testing.T) {
		webhooks, _ := newTestWebhookService(t)
		_, err := webhooks.Add(ctx, "x", "X", "no such event!", "https://example.com")
		require.NoError(t, err)

		exec := &recordingExecutor{}
		ss := NewSubscriptionService(webhooks, events.NewDispatcher(), exec)

		_, err = ss.Activate(ctx)
		require.NoError(t, err)
		assert.Empty(t, exec.Calls())
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		ss := NewSubscriptionService(failingLister{}, events.NewDispatcher(), &recordingExecutor{})
		_, err := ss.Activate(ctx)
		assert.Error(t, err)
	})
}

func TestSubscriptionService_Reactivation(t *testing.T) {
	ctx := context.Background()
	webhooks, _ := newTestWebhookService(t)
	_, err := webhooks.Add(ctx, "existing", "Existing", "post_saved", "https://example.com/1")
	require.NoError(t, err)

	bus := events.NewDispatcher()
	exec := &recordingExecutor{}
	ss := NewSubscriptionService(webhooks, bus, exec)
	_, err = ss.Activate(ctx)
	require.NoError(t, err)

	_, err = webhooks.Add(ctx, "late", "Late", "comment_posted", "https://example.com/2")
	require.NoError(t, err)

	bus.Fire(ctx, "comment_posted", 1)
	assert.Empty(t, exec.Calls(), "webhook added after activation must not receive events")

	_, err = ss.Activate(ctx)
	require.NoError(t, err)

	bus.Fire(ctx, "comment_posted", 2)
	calls := exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "late", calls[0].Slug)
	assert.Equal(t, []any{2}, calls[0].Args)

	t.Run("does not double subscribe", func(t *testing.T) {
		_, err := ss.Activate(ctx)
		require.NoError(t, err)

		before := len(exec.Calls())
		bus.Fire(ctx, "post_saved")
		assert.Len(t, exec.Calls(), before+1)
	})

	t.Run("deleted webhook stops routing after reactivation", func(t *testing.T) {
		require.NoError(t, webhooks.Delete(ctx, "existing"))
		_, err := ss.Activate(ctx)
		require.NoError(t, err)

		before := len(exec.Calls())
		bus.Fire(ctx, "post_saved")
		assert.Len(t, exec.Calls(), before)
		assert.NotContains(t, ss.Bindings(), "post_saved")
	})
}

func TestSubscriptionService_PanicsDoNotReachFiringCode(t *testing.T) {
	ctx := context.Background()
	webhooks, _ := newTestWebhookService(t)
	_, err := webhooks.Add(ctx, "one", "One", "e", "https://example.com/1")
	require.NoError(t, err)
	_, err = webhooks.Add(ctx, "two", "Two", "e", "https://example.com/2")
	require.NoError(t, err)

	bus := events.NewDispatcher()
	exec := &recordingExecutor{panic: true}
	ss := NewSubscriptionService(webhooks, bus, exec)
	_, err = ss.Activate(ctx)
	require.NoError(t, err)

	assert.NotPanics(t, func() { bus.Fire(ctx, "e") })
	assert.Len(t, exec.Calls(), 2)
}

// Full path: event bus -> subscription -> delivery -> registry
func TestSubscriptionService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture(t, models.Settings{})
	_, err := f.webhooks.Add(ctx, "on-publish", "On publish", "post_saved", "https://example.com/hook")
	require.NoError(t, err)

	bus := events.NewDispatcher()
	ss := NewSubscriptionService(f.webhooks, bus, f.delivery)
	_, err = ss.Activate(ctx)
	require.NoError(t, err)

	fired := bus.Fire(ctx, "post_saved", map[string]any{"id": 42})
	assert.Equal(t, 1, fired)

	calls := f.poster.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "https://example.com/hook", calls[0].URL)
	assert.Equal(t, `{"args":[{"id":42}]}`, string(calls[0].Body))

	list, err := f.webhooks.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list["on-publish"].LastExecution)
	assert.Equal(t, 200, *list["on-publish"].LastExecution.ResponseStatusCode)
}

func TestSubscriptionService_ConcurrentActivatePublishesNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	lister := &snapshotLister{
		snapshots: []map[string]*models.Webhook{
			{"old": {Slug: "old", Event: "e"}},
			{"new": {Slug: "new", Event: "e"}},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	ss := NewSubscriptionService(lister, events.NewDispatcher(), &recordingExecutor{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := ss.Activate(ctx)
		assert.NoError(t, err)
	}()
	<-lister.entered

	go func() {
		defer wg.Done()
		_, err := ss.Activate(ctx)
		assert.NoError(t, err)
	}()
	close(lister.release)
	wg.Wait()

	assert.Equal(t, map[string][]string{"e": {"new"}}, ss.Bindings())
}
