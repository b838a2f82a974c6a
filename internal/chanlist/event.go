package chanlist

import (
	"errors"
	"fmt"
)

// Kind classifies a real-time event the list reacts to.
type Kind int

const (
	KindUnknown Kind = iota
	KindMessageNew
	KindNotificationMessageNew
	KindAddedToChannel
	KindRemovedFromChannel
	KindChannelDeleted
	KindChannelHidden
	KindChannelVisible
	KindChannelTruncated
	KindChannelUpdated
	KindConnectionRecovered
	KindUserPresenceChanged
)

var kindNames = [...]string{
	KindUnknown:                "unknown",
	KindMessageNew:             "message.new",
	KindNotificationMessageNew: "notification.message.new",
	KindAddedToChannel:         "notification.added_to_channel",
	KindRemovedFromChannel:     "notification.removed_from_channel",
	KindChannelDeleted:         "channel.deleted",
	KindChannelHidden:          "channel.hidden",
	KindChannelVisible:         "channel.visible",
	KindChannelTruncated:       "channel.truncated",
	KindChannelUpdated:         "channel.updated",
	KindConnectionRecovered:    "connection.recovered",
	KindUserPresenceChanged:    "user.presence.changed",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// ParseKind maps a wire name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if Kind(k) != KindUnknown && name == s {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// Kinds returns every recognised kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames)-1)
	for k := KindMessageNew; int(k) < len(kindNames); k++ {
		out = append(out, k)
	}
	return out
}

var (
	// ErrUnrecognized is returned for event types the list does not handle.
	ErrUnrecognized = errors.New("unrecognized event")
	// ErrMalformedEvent is returned when an event lacks the payload its kind requires.
	ErrMalformedEvent = errors.New("malformed event")
)

// RawEvent is an event as delivered by the chat client.
type RawEvent struct {
	Type        string
	ChannelID   string
	ChannelType string
	Channel     *Channel
	Message     *MessagePreview
	User        *User
}

// Event is a normalized RawEvent. ChannelID is always set for
// channel-scoped kinds; Channel is set when the kind needs a full summary.
type Event struct {
	Kind      Kind
	ChannelID string
	Channel   *Channel
	Message   *MessagePreview
	User      *User
}

// needsChannel lists kinds that insert or merge a channel summary and so
// cannot be applied from an identifier alone.
var needsChannel = map[Kind]bool{
	KindNotificationMessageNew: true,
	KindAddedToChannel:         true,
	KindChannelVisible:         true,
	KindChannelUpdated:         true,
}

// Normalize classifies raw and extracts the channel reference it carries.
// It returns ErrUnrecognized for types outside Kinds and ErrMalformedEvent
// when the payload is missing what its kind requires.
func Normalize(raw RawEvent) (Event, error) {
	kind, ok := ParseKind(raw.Type)
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnrecognized, raw.Type)
	}

	ev := Event{Kind: kind, Message: raw.Message, User: raw.User}

	switch kind {
	case KindConnectionRecovered:
		return ev, nil
	case KindUserPresenceChanged:
		if raw.User == nil || raw.User.ID == "" {
			return Event{}, fmt.Errorf("%w: %s without user", ErrMalformedEvent, kind)
		}
		return ev, nil
	}

	id := raw.ChannelID
	if raw.Channel != nil {
		if id != "" && raw.Channel.ID != "" && raw.Channel.ID != id {
			return Event{}, fmt.Errorf("%w: %s channel id %q does not match payload %q",
				ErrMalformedEvent, kind, id, raw.Channel.ID)
		}
		if id == "" {
			id = raw.Channel.ID
		}
	}
	if id == "" {
		return Event{}, fmt.Errorf("%w: %s without channel id", ErrMalformedEvent, kind)
	}
	ev.ChannelID = id

	if needsChannel[kind] {
		if raw.Channel == nil {
			return Event{}, fmt.Errorf("%w: %s requires a channel", ErrMalformedEvent, kind)
		}
		ch := raw.Channel.Clone()
		ch.ID = id
		if ch.Type == "" {
			ch.Type = raw.ChannelType
		}
		ch.refreshSortKey()
		ev.Channel = &ch
	}
	return ev, nil
}
