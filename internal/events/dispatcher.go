// Package events fans raw channel events out to subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/m96-chan/chanlist/internal/chanlist"
)

// Handler is invoked for every published event of the subscribed type.
type Handler func(raw chanlist.RawEvent)

type subscription struct {
	token   chanlist.Token
	handler Handler
}

// Dispatcher is an in-process pub/sub keyed by event type. Handlers for one
// type run in subscription order on the publishing goroutine.
type Dispatcher struct {
	mu     sync.RWMutex
	byType map[string][]subscription
	types  map[chanlist.Token]string
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byType: make(map[string][]subscription),
		types:  make(map[chanlist.Token]string),
	}
}

// Subscribe registers fn for events whose Type equals eventType and returns
// a token for Unsubscribe.
func (d *Dispatcher) Subscribe(eventType string, fn func(chanlist.RawEvent)) chanlist.Token {
	tok := chanlist.Token(uuid.NewString())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[eventType] = append(d.byType[eventType], subscription{token: tok, handler: fn})
	d.types[tok] = eventType
	return tok
}

// Unsubscribe removes the subscription for tok. Unknown tokens are ignored.
func (d *Dispatcher) Unsubscribe(tok chanlist.Token) {
	d.mu.Lock()
	defer d.mu.Unlock()
	eventType, ok := d.types[tok]
	if !ok {
		return
	}
	delete(d.types, tok)
	subs := d.byType[eventType]
	for i, s := range subs {
		if s.token == tok {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(d.byType, eventType)
	} else {
		d.byType[eventType] = subs
	}
}

// Publish delivers raw to every handler subscribed to raw.Type.
func (d *Dispatcher) Publish(raw chanlist.RawEvent) {
	d.mu.RLock()
	subs := d.byType[raw.Type]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	d.mu.RUnlock()

	// Handlers run outside the lock so they may subscribe or unsubscribe.
	for _, h := range handlers {
		h(raw)
	}
}

// SubscriberCount returns the number of live subscriptions.
func (d *Dispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.types)
}
