// Package events is a small synchronous event bus. Handlers are bound
// explicitly at startup; publishing calls them in registration order.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"journeyinbox/internal/models"
)

// InboundReceived is published once per inbound mail delivery. Message is
// nil when the provider sent no usable payload.
type InboundReceived struct {
	ID         uuid.UUID
	Provider   string
	Message    *models.InboundMessage
	ReceivedAt time.Time
}

// UserLoggedIn is published after a login link is redeemed.
type UserLoggedIn struct {
	UserID uint
	At     time.Time
}

type Bus struct {
	log zerolog.Logger

	mu      sync.RWMutex
	inbound []func(context.Context, InboundReceived)
	login   []func(context.Context, UserLoggedIn)
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{log: log.With().Str("service", "EventBus").Logger()}
}

func (b *Bus) SubscribeInbound(h func(context.Context, InboundReceived)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inbound = append(b.inbound, h)
}

func (b *Bus) SubscribeLogin(h func(context.Context, UserLoggedIn)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.login = append(b.login, h)
}

// PublishInbound returns the number of handlers that ran without panicking.
func (b *Bus) PublishInbound(ctx context.Context, ev InboundReceived) int {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	b.mu.RLock()
	handlers := append([]func(context.Context, InboundReceived){}, b.inbound...)
	b.mu.RUnlock()

	ok := 0
	for i, h := range handlers {
		if b.call("inbound", i, func() { h(ctx, ev) }) {
			ok++
		}
	}
	return ok
}

func (b *Bus) PublishLogin(ctx context.Context, ev UserLoggedIn) int {
	b.mu.RLock()
	handlers := append([]func(context.Context, UserLoggedIn){}, b.login...)
	b.mu.RUnlock()

	ok := 0
	for i, h := range handlers {
		if b.call("login", i, func() { h(ctx, ev) }) {
			ok++
		}
	}
	return ok
}

// call isolates one handler so a panic cannot stop the rest.
func (b *Bus) call(event string, index int, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event", event).
				Int("handler", index).
				Str("panic", fmt.Sprint(r)).
				Msg("Event handler panicked")
			ok = false
		}
	}()
	fn()
	return true
}
