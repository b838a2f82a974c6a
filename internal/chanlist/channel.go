// Package chanlist keeps a paginated, live-updating list of channels
// consistent with a stream of real-time events from a chat backend.
//
// A List owns the channel collection and the active selection. Every
// mutation runs on a single task queue, so event handlers and page fetches
// never race each other; network calls happen in the caller's goroutine and
// only their results are applied on the queue.
package chanlist

import (
	"maps"
	"slices"
	"time"
)

// Channel types as reported by the backend.
const (
	TypePublic  = "public"
	TypePrivate = "private"
	TypeDM      = "im"
	TypeGroupDM = "mpim"
	TypeShared  = "shared"
)

// MessagePreview is the last message shown under a channel in the list.
type MessagePreview struct {
	ID        string
	UserID    string
	Text      string
	CreatedAt time.Time
}

// User identifies a member whose presence or status changed. Online is
// only meaningful when HasPresence is set; status-only updates leave the
// last known presence alone.
type User struct {
	ID          string
	Name        string
	Online      bool
	HasPresence bool
	Status      string
	LastActive  time.Time
}

// Presence is the last known presence of one channel member.
type Presence struct {
	Name       string
	Online     bool
	Status     string
	LastActive time.Time
}

// WatcherInfo maps user ID to presence.
type WatcherInfo map[string]Presence

// SortKey is a snapshot of the fields channels are ordered by.
type SortKey struct {
	LastMessageAt time.Time
	UpdatedAt     time.Time
	CreatedAt     time.Time
	MemberCount   int
	UnreadCount   int
	Name          string
}

// Channel is the summary of one conversation held in the list.
type Channel struct {
	ID          string
	Type        string
	Name        string
	Topic       string
	Members     []string
	Data        map[string]string
	LastMessage *MessagePreview
	UnreadCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	SortKey  SortKey
	Watchers WatcherInfo

	// Revision is bumped on every mutation that changes content without
	// changing identity, so observers can tell two snapshots apart.
	Revision uint64
}

// refreshSortKey recomputes SortKey from the channel's fields.
func (c *Channel) refreshSortKey() {
	key := SortKey{
		UpdatedAt:   c.UpdatedAt,
		CreatedAt:   c.CreatedAt,
		MemberCount: len(c.Members),
		UnreadCount: c.UnreadCount,
		Name:        c.Name,
	}
	if c.LastMessage != nil {
		key.LastMessageAt = c.LastMessage.CreatedAt
	}
	c.SortKey = key
}

// merge overlays the non-zero fields of src onto c. Watchers are merged
// key by key; the revision is left to the caller.
func (c *Channel) merge(src Channel) {
	if src.Type != "" {
		c.Type = src.Type
	}
	if src.Name != "" {
		c.Name = src.Name
	}
	if src.Topic != "" {
		c.Topic = src.Topic
	}
	if src.Members != nil {
		c.Members = slices.Clone(src.Members)
	}
	if len(src.Data) > 0 {
		if c.Data == nil {
			c.Data = make(map[string]string, len(src.Data))
		}
		maps.Copy(c.Data, src.Data)
	}
	if src.LastMessage != nil {
		if c.LastMessage == nil || !src.LastMessage.CreatedAt.Before(c.LastMessage.CreatedAt) {
			msg := *src.LastMessage
			c.LastMessage = &msg
		}
	}
	if src.UnreadCount != 0 {
		c.UnreadCount = src.UnreadCount
	}
	if !src.CreatedAt.IsZero() {
		c.CreatedAt = src.CreatedAt
	}
	if src.UpdatedAt.After(c.UpdatedAt) {
		c.UpdatedAt = src.UpdatedAt
	}
	for id, p := range src.Watchers {
		if c.Watchers == nil {
			c.Watchers = make(WatcherInfo)
		}
		c.Watchers[id] = p
	}
	c.refreshSortKey()
}

// hasMember reports whether userID belongs to the channel or is already
// tracked as a watcher.
func (c *Channel) hasMember(userID string) bool {
	if _, ok := c.Watchers[userID]; ok {
		return true
	}
	return slices.Contains(c.Members, userID)
}

// Clone returns a deep copy safe to hand outside the task queue.
func (c Channel) Clone() Channel {
	out := c
	out.Members = slices.Clone(c.Members)
	out.Data = maps.Clone(c.Data)
	out.Watchers = maps.Clone(c.Watchers)
	if c.LastMessage != nil {
		msg := *c.LastMessage
		out.LastMessage = &msg
	}
	return out
}

// OnlineCount returns how many watchers are currently online.
func (c Channel) OnlineCount() int {
	n := 0
	for _, p := range c.Watchers {
		if p.Online {
			n++
		}
	}
	return n
}

func cloneChannels(items []Channel) []Channel {
	out := make([]Channel, len(items))
	for i, c := range items {
		out[i] = c.Clone()
	}
	return out
}
