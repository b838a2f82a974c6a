package notifications

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/events"
)

func TestDetectMention(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		selfUserID string
		isDM       bool
		want       MentionType
	}{
		{"DM", "hello", "U1", true, MentionDM},
		{"direct mention", "hey <@U1> check this", "U1", false, MentionDirect},
		{"direct mention with label", "hey <@U1|alice> check this", "U1", false, MentionDirect},
		{"everyone", "<!everyone> heads up", "U1", false, MentionEveryone},
		{"channel", "<!channel> important", "U1", false, MentionChannel},
		{"here", "<!here> anyone around?", "U1", false, MentionHere},
		{"no mention", "just a regular message", "U1", false, MentionNone},
		{"other user mention", "hey <@U2> check this", "U1", false, MentionNone},
		{"unknown self", "hey <@> there", "", false, MentionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectMention(tt.text, tt.selfUserID, tt.isDM)
			if got != tt.want {
				t.Errorf("DetectMention(%q, %q, %v) = %d, want %d",
					tt.text, tt.selfUserID, tt.isDM, got, tt.want)
			}
		})
	}
}

func TestDetectMention_Priority(t *testing.T) {
	// DM takes priority over other mentions.
	if got := DetectMention("<@U1> <!everyone>", "U1", true); got != MentionDM {
		t.Errorf("DM should take priority, got %d", got)
	}

	// Direct mention takes priority over group mentions.
	if got := DetectMention("<@U1> <!here>", "U1", false); got != MentionDirect {
		t.Errorf("direct mention should take priority over here, got %d", got)
	}
}

func TestStripMrkdwn(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bold", "*hello*", "hello"},
		{"italic", "_hello_", "hello"},
		{"strike", "~hello~", "hello"},
		{"code block", "```code```", "code"},
		{"inline code", "`code`", "code"},
		{"user mention with label", "<@U1|alice>", "@alice"},
		{"user mention", "<@U1>", "@U1"},
		{"channel mention", "<#C1|general>", "#general"},
		{"special mention", "<!here|here>", "here"},
		{"special mention no label", "<!here>", "@here"},
		{"link with label", "<https://example.com|Example>", "Example"},
		{"link without label", "<https://example.com>", "https://example.com"},
		{"unclosed bracket", "a < b", "a < b"},
		{"no formatting", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripMrkdwn(tt.text)
			if got != tt.want {
				t.Errorf("StripMrkdwn(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestStripMrkdwn_Truncation(t *testing.T) {
	got := StripMrkdwn(strings.Repeat("é", 250))
	if n := len([]rune(got)); n != 201 {
		t.Errorf("expected 200 runes plus ellipsis, got %d", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated text should end with an ellipsis: %q", got)
	}
}

// recorder collects sends synchronously.
type recorder struct {
	mu   sync.Mutex
	sent []string
	done chan struct{}
}

func newTestNotifier(rec *recorder) *Notifier {
	n := New()
	n.send = func(title, body string) error {
		rec.mu.Lock()
		rec.sent = append(rec.sent, title+": "+body)
		rec.mu.Unlock()
		rec.done <- struct{}{}
		return nil
	}
	return n
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not sent")
	}
}

func TestNotifier_RateLimit(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 4)}
	n := newTestNotifier(rec)

	if !n.Send("title", "body") {
		t.Fatal("first Send should go through")
	}
	rec.wait(t)
	if n.Send("title2", "body2") {
		t.Error("second Send right after should be rate-limited")
	}
}

func TestDescribe(t *testing.T) {
	general := &chanlist.Channel{ID: "C1", Name: "general"}
	msg := func(user, text string) *chanlist.MessagePreview {
		return &chanlist.MessagePreview{UserID: user, Text: text}
	}

	tests := []struct {
		name   string
		raw    chanlist.RawEvent
		wantOK bool
		want   string
	}{
		{
			name:   "message outside the list",
			raw:    chanlist.RawEvent{Type: "notification.message.new", ChannelID: "C1", Channel: general, Message: msg("U2", "*hi*")},
			wantOK: true,
			want:   "#general: hi",
		},
		{
			name:   "added to channel",
			raw:    chanlist.RawEvent{Type: "notification.added_to_channel", ChannelID: "C1", Channel: general},
			wantOK: true,
			want:   "chanlist: You were added to #general",
		},
		{
			name:   "mention in listed channel",
			raw:    chanlist.RawEvent{Type: "message.new", ChannelID: "C1", Message: msg("U2", "ping <@U1>")},
			wantOK: true,
			want:   "#C1: ping @U1",
		},
		{
			name:   "direct message",
			raw:    chanlist.RawEvent{Type: "message.new", ChannelID: "D1", ChannelType: chanlist.TypeDM, Message: msg("U2", "yo")},
			wantOK: true,
			want:   "Direct message: yo",
		},
		{
			name: "plain message in listed channel",
			raw:  chanlist.RawEvent{Type: "message.new", ChannelID: "C1", Message: msg("U2", "hello")},
		},
		{
			name: "own message",
			raw:  chanlist.RawEvent{Type: "message.new", ChannelID: "D1", ChannelType: chanlist.TypeDM, Message: msg("U1", "yo")},
		},
		{
			name: "other kinds",
			raw:  chanlist.RawEvent{Type: "channel.deleted", ChannelID: "C1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, ok := describe(tt.raw, "U1")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && title+": "+body != tt.want {
				t.Errorf("got %q, want %q", title+": "+body, tt.want)
			}
		})
	}
}

func TestWatch(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 4)}
	n := newTestNotifier(rec)
	d := events.NewDispatcher()

	stop := n.Watch(d, "U1")
	if got := d.SubscriberCount(); got != 3 {
		t.Fatalf("subscriptions = %d, want 3", got)
	}

	d.Publish(chanlist.RawEvent{
		Type:      "notification.message.new",
		ChannelID: "C9",
		Channel:   &chanlist.Channel{ID: "C9", Name: "ops"},
		Message:   &chanlist.MessagePreview{UserID: "U2", Text: "deploy done"},
	})
	rec.wait(t)

	rec.mu.Lock()
	got := rec.sent
	rec.mu.Unlock()
	if len(got) != 1 || got[0] != "#ops: deploy done" {
		t.Errorf("sent = %q", got)
	}

	stop()
	if got := d.SubscriberCount(); got != 0 {
		t.Errorf("subscriptions after stop = %d, want 0", got)
	}
}
