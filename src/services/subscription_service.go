package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/khabaroff/hook-expose/src/events"
	"github.com/khabaroff/hook-expose/src/logging"
	"github.com/khabaroff/hook-expose/src/models"
)

// EventBus is the host publish/subscribe facility webhooks listen on
type EventBus interface {
	Subscribe(event string, handler events.Handler)
}

// Executor performs one delivery
type Executor interface {
	Execute(ctx context.Context, slug string, args []any)
}

// WebhookLister provides the registry snapshot routing is built from
type WebhookLister interface {
	List(ctx context.Context) (map[string]*models.Webhook, error)
}

// routingTable maps event name to the slugs bound to it. Never mutated after publish.
type routingTable map[string][]string

// SubscriptionService binds registry records to the event bus. The routing
// table is built from a registry snapshot and only changes on Activate, so
// webhooks added later receive nothing until the next activation.
type SubscriptionService struct {
	webhooks WebhookLister
	bus      EventBus
	executor Executor
	logger   zerolog.Logger

	table atomic.Pointer[routingTable]

	mu         sync.Mutex
	subscribed map[string]bool
}

// NewSubscriptionService creates an inactive subscription manager
func NewSubscriptionService(webhooks WebhookLister, bus EventBus, executor Executor) *SubscriptionService {
	ss := &SubscriptionService{
		webhooks:   webhooks,
		bus:        bus,
		executor:   executor,
		logger:     logging.NewLogger("subscriptions"),
		subscribed: make(map[string]bool),
	}
	empty := routingTable{}
	ss.table.Store(&empty)
	return ss
}

// Activate rebuilds the routing table from the registry and returns the
// number of bindings. Bus listeners are added once per event name and are
// never removed; they read whichever table is current when the event fires.
// Concurrent activations are serialized so the newest snapshot is published last.
func (ss *SubscriptionService) Activate(ctx context.Context) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	webhooks, err := ss.webhooks.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list webhooks: %w", err)
	}

	slugs := make([]string, 0, len(webhooks))
	for slug := range webhooks {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	table := routingTable{}
	for _, slug := range slugs {
		wh := webhooks[slug]
		table[wh.Event] = append(table[wh.Event], slug)
	}

	for event := range table {
		if ss.subscribed[event] {
			continue
		}
		ss.bus.Subscribe(event, ss.listener(event))
		ss.subscribed[event] = true
	}
	ss.table.Store(&table)

	ss.logger.Info().
		Int("webhooks", len(slugs)).
		Int("events", len(table)).
		Msg("Webhook subscriptions activated")

	return len(slugs), nil
}

// Bindings returns the current routing as event name -> slugs
func (ss *SubscriptionService) Bindings() map[string][]string {
	table := *ss.table.Load()
	out := make(map[string][]string, len(table))
	for event, slugs := range table {
		out[event] = append([]string(nil), slugs...)
	}
	return out
}

func (ss *SubscriptionService) listener(event string) events.Handler {
	return func(ctx context.Context, args ...any) {
		table := *ss.table.Load()
		for _, slug := range table[event] {
			ss.forward(ctx, slug, args)
		}
	}
}

// forward keeps a failing delivery away from the code that fired the event
func (ss *SubscriptionService) forward(ctx context.Context, slug string, args []any) {
	defer func() {
		if r := recover(); r != nil {
			ss.logger.Error().Str("slug", slug).Interface("panic", r).Msg("Webhook listener panicked")
		}
	}()
	ss.executor.Execute(ctx, slug, args)
}
