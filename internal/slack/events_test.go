package slack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/m96-chan/chanlist/internal/chanlist"
)

type recorder struct {
	got       []chanlist.RawEvent
	fetched   []string
	unwatched []string
}

func newTestTranslator(rec *recorder, watched map[string]bool) *translator {
	return &translator{
		selfID:  "USELF",
		watched: func(id string) bool { return watched[id] },
		unwatch: func(id string) { rec.unwatched = append(rec.unwatched, id) },
		fetch: func(_ context.Context, id string) (*chanlist.Channel, error) {
			rec.fetched = append(rec.fetched, id)
			if id == "CMISSING" {
				return nil, errors.New("channel_not_found")
			}
			return &chanlist.Channel{ID: id, Type: chanlist.TypePublic, Name: "fetched-" + id}, nil
		},
		publish: func(raw chanlist.RawEvent) { rec.got = append(rec.got, raw) },
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMessageRouting(t *testing.T) {
	tests := []struct {
		name      string
		msg       slackevents.MessageEvent
		wantType  string
		wantFetch bool
	}{
		{
			name:     "watched channel",
			msg:      slackevents.MessageEvent{Channel: "C1", ChannelType: "channel", TimeStamp: "1700000000.000100", Text: "hi"},
			wantType: "message.new",
		},
		{
			name:      "unwatched channel",
			msg:       slackevents.MessageEvent{Channel: "C2", TimeStamp: "1700000000.000100"},
			wantType:  "notification.message.new",
			wantFetch: true,
		},
		{
			name:      "topic change",
			msg:       slackevents.MessageEvent{Channel: "C1", SubType: "channel_topic"},
			wantType:  "channel.updated",
			wantFetch: true,
		},
		{
			name: "thread reply",
			msg:  slackevents.MessageEvent{Channel: "C1", TimeStamp: "2.0", ThreadTimeStamp: "1.0"},
		},
		{
			name:     "thread broadcast",
			msg:      slackevents.MessageEvent{Channel: "C1", SubType: "thread_broadcast", TimeStamp: "2.0", ThreadTimeStamp: "1.0"},
			wantType: "message.new",
		},
		{
			name: "edit is ignored",
			msg:  slackevents.MessageEvent{Channel: "C1", SubType: "message_changed"},
		},
		{
			name: "lookup failure drops the event",
			msg:  slackevents.MessageEvent{Channel: "CMISSING", TimeStamp: "1.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tr := newTestTranslator(rec, map[string]bool{"C1": true})
			msg := tt.msg
			tr.onMessage(context.Background(), &msg)

			if tt.wantType == "" {
				if len(rec.got) != 0 {
					t.Fatalf("published %d events, want none", len(rec.got))
				}
				return
			}
			if len(rec.got) != 1 {
				t.Fatalf("published %d events, want 1", len(rec.got))
			}
			ev := rec.got[0]
			if ev.Type != tt.wantType {
				t.Errorf("type = %q, want %q", ev.Type, tt.wantType)
			}
			if ev.ChannelID != msg.Channel {
				t.Errorf("channel = %q, want %q", ev.ChannelID, msg.Channel)
			}
			if tt.wantFetch && ev.Channel == nil {
				t.Error("expected a fetched channel summary")
			}
			if _, err := chanlist.Normalize(ev); err != nil {
				t.Errorf("published event does not normalize: %v", err)
			}
		})
	}
}

func TestMessagePreview(t *testing.T) {
	rec := &recorder{}
	tr := newTestTranslator(rec, map[string]bool{"C1": true})
	tr.onMessage(context.Background(), &slackevents.MessageEvent{
		Channel: "C1", ChannelType: "im", User: "U1", Text: "hello", TimeStamp: "1700000000.500000",
	})

	ev := rec.got[0]
	if ev.ChannelType != chanlist.TypeDM {
		t.Errorf("channel type = %q, want %q", ev.ChannelType, chanlist.TypeDM)
	}
	if ev.Message == nil || ev.Message.Text != "hello" || ev.Message.UserID != "U1" {
		t.Fatalf("unexpected preview %+v", ev.Message)
	}
	if got := ev.Message.CreatedAt.UnixMilli(); got != 1700000000500 {
		t.Errorf("created at = %d, want 1700000000500", got)
	}
}

func TestMembershipOnlyForSelf(t *testing.T) {
	rec := &recorder{}
	tr := newTestTranslator(rec, nil)
	ctx := context.Background()

	tr.onMemberJoined(ctx, &slackevents.MemberJoinedChannelEvent{User: "UOTHER", Channel: "C1"})
	tr.onMemberLeft(&slackevents.MemberLeftChannelEvent{User: "UOTHER", Channel: "C1"})
	if len(rec.got) != 0 {
		t.Fatalf("other users' membership must be ignored, got %v", rec.got)
	}

	tr.onMemberJoined(ctx, &slackevents.MemberJoinedChannelEvent{User: "USELF", Channel: "C1"})
	tr.onMemberLeft(&slackevents.MemberLeftChannelEvent{User: "USELF", Channel: "C1"})

	want := []string{"notification.added_to_channel", "notification.removed_from_channel"}
	if len(rec.got) != len(want) {
		t.Fatalf("got %d events, want %d", len(rec.got), len(want))
	}
	for i, w := range want {
		if rec.got[i].Type != w {
			t.Errorf("event %d = %q, want %q", i, rec.got[i].Type, w)
		}
	}
	if len(rec.unwatched) != 1 || rec.unwatched[0] != "C1" {
		t.Errorf("unwatched = %v, want [C1]", rec.unwatched)
	}
}

func TestRemovalKinds(t *testing.T) {
	rec := &recorder{}
	tr := newTestTranslator(rec, nil)

	tr.removed(chanlist.KindChannelDeleted, "C1")
	tr.removed(chanlist.KindChannelHidden, "C2")
	tr.renamed("C3", "renamed")

	want := []string{"channel.deleted", "channel.hidden", "channel.updated"}
	for i, w := range want {
		if rec.got[i].Type != w {
			t.Errorf("event %d = %q, want %q", i, rec.got[i].Type, w)
		}
	}
	if rec.got[2].Channel == nil || rec.got[2].Channel.Name != "renamed" {
		t.Errorf("rename payload = %+v", rec.got[2].Channel)
	}
}

func TestConnectionRecovered(t *testing.T) {
	rec := &recorder{}
	tr := newTestTranslator(rec, nil)

	tr.onConnected()
	if len(rec.got) != 0 {
		t.Fatal("first connect must not be reported as a recovery")
	}

	tr.onDisconnected()
	tr.onDisconnected()
	tr.onConnected()
	tr.onConnected()
	if len(rec.got) != 1 || rec.got[0].Type != "connection.recovered" {
		t.Fatalf("got %v, want one connection.recovered", rec.got)
	}
}

func TestUserStatusChanged(t *testing.T) {
	rec := &recorder{}
	tr := newTestTranslator(rec, nil)

	u := slack.User{ID: "U1", Name: "ann", Presence: "active"}
	u.Profile.StatusText = "lunch"
	tr.onUserStatusChanged(&slackevents.UserStatusChangedEvent{User: u})

	got := rec.got[0].User
	if got == nil || got.ID != "U1" || !got.Online || !got.HasPresence || got.Status != "lunch" || got.Name != "ann" {
		t.Errorf("unexpected user %+v", got)
	}

	// Status events usually omit presence.
	u = slack.User{ID: "U1", Name: "ann"}
	u.Profile.StatusText = "meeting"
	tr.onUserStatusChanged(&slackevents.UserStatusChangedEvent{User: u})
	if got := rec.got[1].User; got.HasPresence || got.Status != "meeting" {
		t.Errorf("status-only update should not claim presence: %+v", got)
	}
}
