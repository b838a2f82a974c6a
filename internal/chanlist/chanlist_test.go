package chanlist

import (
	"io"
	"log/slog"
	"time"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func ch(id string, ts int64) Channel {
	c := Channel{ID: id, Type: TypePublic, Name: id}
	if ts > 0 {
		c.LastMessage = &MessagePreview{ID: id + "-m", Text: "hi", CreatedAt: time.Unix(ts, 0)}
	}
	return c
}

func ids(items []Channel) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return out
}

// loadedStore returns an unsorted store holding items in the given order.
func loadedStore(lock bool, items ...Channel) *Store {
	s := NewStore(DefaultPageLimit, nil, lock, nil)
	s.beginLoad()
	s.applyPage(Page{Channels: items}, false)
	return s
}
