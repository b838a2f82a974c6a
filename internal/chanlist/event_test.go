package chanlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("unknown")
	assert.False(t, ok)
	_, ok = ParseKind("typing.start")
	assert.False(t, ok)
	assert.Len(t, Kinds(), 11)
}

func TestNormalize(t *testing.T) {
	a := ch("A", 10)

	tests := []struct {
		name    string
		raw     RawEvent
		wantErr error
		wantID  string
	}{
		{
			name:    "unknown type",
			raw:     RawEvent{Type: "typing.start", ChannelID: "A"},
			wantErr: ErrUnrecognized,
		},
		{
			name:   "message by id",
			raw:    RawEvent{Type: "message.new", ChannelID: "A"},
			wantID: "A",
		},
		{
			name:   "id taken from payload",
			raw:    RawEvent{Type: "channel.updated", Channel: &a},
			wantID: "A",
		},
		{
			name:    "id mismatch",
			raw:     RawEvent{Type: "channel.updated", ChannelID: "B", Channel: &a},
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing id",
			raw:     RawEvent{Type: "channel.deleted"},
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "added without summary",
			raw:     RawEvent{Type: "notification.added_to_channel", ChannelID: "A"},
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "notification without summary",
			raw:     RawEvent{Type: "notification.message.new", ChannelID: "A"},
			wantErr: ErrMalformedEvent,
		},
		{
			name: "connection recovered needs nothing",
			raw:  RawEvent{Type: "connection.recovered"},
		},
		{
			name:    "presence without user",
			raw:     RawEvent{Type: "user.presence.changed"},
			wantErr: ErrMalformedEvent,
		},
		{
			name: "presence",
			raw:  RawEvent{Type: "user.presence.changed", User: &User{ID: "U1", Online: true, HasPresence: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Normalize(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, ev.ChannelID)
		})
	}
}

func TestNormalizeCopiesChannel(t *testing.T) {
	src := Channel{Name: "general", Members: []string{"U1"}}
	ev, err := Normalize(RawEvent{
		Type:        "notification.added_to_channel",
		ChannelID:   "C1",
		ChannelType: TypePrivate,
		Channel:     &src,
	})
	require.NoError(t, err)
	require.NotNil(t, ev.Channel)

	assert.Equal(t, "C1", ev.Channel.ID)
	assert.Equal(t, TypePrivate, ev.Channel.Type)
	assert.Equal(t, 1, ev.Channel.SortKey.MemberCount)

	ev.Channel.Members[0] = "U2"
	assert.Equal(t, "U1", src.Members[0], "normalized event must not alias the raw payload")
}
