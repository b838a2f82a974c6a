package chanlist

import (
	"errors"
	"log/slog"
)

// Handler decides how an event mutates the list. Overrides receive the
// store's mutation contract after the event has been normalized.
type Handler func(m Mutator, ev Event)

// Policy holds the engine's configurable defaults.
type Policy struct {
	LockChannelOrder                       bool
	AllowNewMessagesFromUnfilteredChannels bool
	ReorderOnUpdate                        bool
}

// Engine applies normalized events to a Store.
type Engine struct {
	store     *Store
	tracker   *Tracker
	policy    Policy
	overrides map[Kind]Handler
	log       *slog.Logger
}

// NewEngine binds an engine to store and tracker. Overrides replace the
// default strategy for their kind.
func NewEngine(store *Store, tracker *Tracker, policy Policy, overrides map[Kind]Handler, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	o := make(map[Kind]Handler, len(overrides))
	for k, h := range overrides {
		if h != nil {
			o[k] = h
		}
	}
	return &Engine{store: store, tracker: tracker, policy: policy, overrides: o, log: log}
}

// Handle normalizes raw and applies it. Unrecognized and malformed events
// are logged and dropped; the returned error only reports why.
func (e *Engine) Handle(raw RawEvent) error {
	ev, err := Normalize(raw)
	if err != nil {
		if errors.Is(err, ErrUnrecognized) {
			e.log.Debug("ignoring event", "type", raw.Type)
		} else {
			e.log.Warn("dropping event", "type", raw.Type, "channel", raw.ChannelID, "error", err)
		}
		return err
	}
	e.Dispatch(ev)
	return nil
}

// Dispatch applies an already normalized event.
func (e *Engine) Dispatch(ev Event) {
	if h, ok := e.overrides[ev.Kind]; ok {
		h(e.store, ev)
	} else if s, ok := defaultStrategies[ev.Kind]; ok {
		s(e, ev)
	}

	switch ev.Kind {
	case KindRemovedFromChannel, KindChannelDeleted, KindChannelHidden:
		if e.tracker.ClearIf(ev.ChannelID) {
			e.log.Debug("active channel cleared", "kind", ev.Kind, "channel", ev.ChannelID)
		}
	}
}

type strategy func(e *Engine, ev Event)

var defaultStrategies = map[Kind]strategy{
	KindMessageNew:             (*Engine).onMessageNew,
	KindNotificationMessageNew: (*Engine).onNotificationMessageNew,
	KindAddedToChannel:         (*Engine).onAddedToChannel,
	KindRemovedFromChannel:     (*Engine).onRemoved,
	KindChannelDeleted:         (*Engine).onRemoved,
	KindChannelHidden:          (*Engine).onRemoved,
	KindChannelVisible:         (*Engine).onVisible,
	KindChannelTruncated:       (*Engine).onTruncated,
	KindChannelUpdated:         (*Engine).onUpdated,
	KindConnectionRecovered:    (*Engine).onConnectionRecovered,
	KindUserPresenceChanged:    (*Engine).onPresenceChanged,
}

// onMessageNew refreshes the preview of a listed channel and moves it up.
// Channels outside the list are filtered out by the caller and ignored.
func (e *Engine) onMessageNew(ev Event) {
	if !e.store.Has(ev.ChannelID) {
		return
	}
	if ev.Message != nil {
		msg := *ev.Message
		e.store.Update(ev.ChannelID, func(c *Channel) {
			c.LastMessage = &msg
		})
	}
	if !e.policy.LockChannelOrder {
		e.store.ReorderToTop(ev.ChannelID)
	}
}

func (e *Engine) onNotificationMessageNew(ev Event) {
	if !e.policy.AllowNewMessagesFromUnfilteredChannels {
		return
	}
	ch := *ev.Channel
	if ev.Message != nil {
		msg := *ev.Message
		ch.LastMessage = &msg
	}
	e.store.Upsert(ch)
	if !e.policy.LockChannelOrder {
		e.store.ReorderToTop(ch.ID)
	}
}

func (e *Engine) onAddedToChannel(ev Event) {
	e.store.InsertAtTop(*ev.Channel)
}

func (e *Engine) onRemoved(ev Event) {
	e.store.Remove(ev.ChannelID)
}

func (e *Engine) onVisible(ev Event) {
	e.store.Upsert(*ev.Channel)
}

func (e *Engine) onTruncated(ev Event) {
	e.store.ForceRevision(ev.ChannelID)
}

// onUpdated merges the new summary in place. The channel only moves when
// the caller opted in and a sort field actually changed.
func (e *Engine) onUpdated(ev Event) {
	before, ok := e.store.Get(ev.ChannelID)
	if !ok {
		return
	}
	src := *ev.Channel
	e.store.Update(ev.ChannelID, func(c *Channel) {
		c.merge(src)
	})
	if !e.policy.ReorderOnUpdate || e.policy.LockChannelOrder || len(e.store.sort) == 0 {
		return
	}
	after, _ := e.store.Get(ev.ChannelID)
	if after.SortKey != before.SortKey {
		e.store.Reposition(ev.ChannelID)
	}
}

func (e *Engine) onConnectionRecovered(Event) {
	e.store.ForceRevisionAll()
}

func (e *Engine) onPresenceChanged(ev Event) {
	e.store.MergeWatchers(*ev.User)
}
