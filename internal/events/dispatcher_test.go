package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m96-chan/chanlist/internal/chanlist"
)

func TestDispatcherPublishOrder(t *testing.T) {
	d := NewDispatcher()
	var got []string
	d.Subscribe("channel.deleted", func(raw chanlist.RawEvent) { got = append(got, "first:"+raw.ChannelID) })
	d.Subscribe("channel.deleted", func(raw chanlist.RawEvent) { got = append(got, "second:"+raw.ChannelID) })
	d.Subscribe("message.new", func(raw chanlist.RawEvent) { got = append(got, "message") })

	d.Publish(chanlist.RawEvent{Type: "channel.deleted", ChannelID: "C1"})
	assert.Equal(t, []string{"first:C1", "second:C1"}, got)

	d.Publish(chanlist.RawEvent{Type: "channel.hidden", ChannelID: "C1"})
	assert.Len(t, got, 2)
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	a := d.Subscribe("message.new", func(chanlist.RawEvent) { calls++ })
	b := d.Subscribe("message.new", func(chanlist.RawEvent) { calls += 10 })
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, d.SubscriberCount())

	d.Unsubscribe(a)
	d.Unsubscribe(a)
	d.Unsubscribe("unknown")
	d.Publish(chanlist.RawEvent{Type: "message.new"})
	assert.Equal(t, 10, calls)

	d.Unsubscribe(b)
	assert.Zero(t, d.SubscriberCount())
}

func TestDispatcherHandlerMayUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var tok chanlist.Token
	calls := 0
	tok = d.Subscribe("channel.hidden", func(chanlist.RawEvent) {
		calls++
		d.Unsubscribe(tok)
	})

	d.Publish(chanlist.RawEvent{Type: "channel.hidden"})
	d.Publish(chanlist.RawEvent{Type: "channel.hidden"})
	assert.Equal(t, 1, calls)
}
