package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/m96-chan/chanlist/internal/chanlist"
)

const conversationsPage = `{
  "ok": true,
  "channels": [
    {"id": "C1", "name": "general", "is_channel": true, "is_member": true, "created": 1700000000,
     "topic": {"value": "welcome", "last_set": 1700000100}, "num_members": 3},
    {"id": "C2", "name": "random", "is_channel": true, "is_member": false, "created": 1700000000},
    {"id": "D1", "is_im": true, "user": "U2", "created": 1700000000}
  ],
  "response_metadata": {"next_cursor": "dGVhbTpD"}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := slack.New("xoxp-test", slack.OptionAPIURL(srv.URL+"/"))
	return newClient(api, clientOptions{limit: 1000, burst: 10})
}

func TestQueryChannels(t *testing.T) {
	var gotCursor, gotTypes string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations.list":
			gotCursor = r.FormValue("cursor")
			gotTypes = r.FormValue("types")
			fmt.Fprint(w, conversationsPage)
		case "/users.list":
			fmt.Fprint(w, `{"ok": true, "members": [{"id": "U2", "name": "bob"}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	page, err := c.QueryChannels(context.Background(),
		chanlist.Filters{Types: []string{chanlist.TypePublic, chanlist.TypeDM}, MemberOnly: true},
		chanlist.DefaultSort(),
		chanlist.QueryOptions{Limit: 10, Cursor: "abc"})
	if err != nil {
		t.Fatalf("QueryChannels: %v", err)
	}

	if gotCursor != "abc" {
		t.Errorf("cursor = %q, want abc", gotCursor)
	}
	if gotTypes != "public_channel,im" {
		t.Errorf("types = %q, want public_channel,im", gotTypes)
	}
	if !page.HasNextPage || page.Cursor != "dGVhbTpD" {
		t.Errorf("pagination = %q/%v", page.Cursor, page.HasNextPage)
	}
	if len(page.Channels) != 2 {
		t.Fatalf("got %d channels, want 2 (non-member filtered)", len(page.Channels))
	}

	general := page.Channels[0]
	if general.ID != "C1" || general.Topic != "welcome" || general.Type != chanlist.TypePublic {
		t.Errorf("unexpected summary %+v", general)
	}
	if !general.UpdatedAt.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("updated at = %v", general.UpdatedAt)
	}

	dm := page.Channels[1]
	if dm.Type != chanlist.TypeDM || dm.Name != "bob" {
		t.Errorf("dm = %+v, want type im named bob", dm)
	}
	if !c.Watched("C1") || !c.Watched("D1") || c.Watched("C2") {
		t.Error("only returned channels should be watched")
	}
}

func TestQueryChannelsRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conversations.list":
			if calls.Add(1) == 1 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"ok": true, "channels": [], "response_metadata": {"next_cursor": ""}}`)
		case "/users.list":
			fmt.Fprint(w, `{"ok": true, "members": []}`)
		}
	})

	page, err := c.QueryChannels(context.Background(), chanlist.Filters{}, nil, chanlist.QueryOptions{Limit: 5})
	if err != nil {
		t.Fatalf("QueryChannels: %v", err)
	}
	if page.HasNextPage {
		t.Error("empty cursor must end pagination")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestQueryChannelsError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "error": "invalid_auth"}`)
	})

	_, err := c.QueryChannels(context.Background(), chanlist.Filters{}, nil, chanlist.QueryOptions{Limit: 5})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseTS(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1700000000.000100", time.Unix(1700000000, 100_000)},
		{"1700000000", time.Unix(1700000000, 0)},
		{"1700000000.5", time.Unix(1700000000, 500_000_000)},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		if got := parseTS(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTS(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRejectsBadAppToken(t *testing.T) {
	if _, err := New(context.Background(), "xoxp-1", "xoxb-1"); err == nil {
		t.Error("expected error for non xapp- token")
	}
}

func TestConversationTypes(t *testing.T) {
	if got := conversationTypes(nil); len(got) != 4 {
		t.Errorf("default types = %v", got)
	}
	got := conversationTypes([]string{chanlist.TypePrivate, chanlist.TypeGroupDM, chanlist.TypeShared})
	if len(got) != 2 || got[0] != "private_channel" || got[1] != "mpim" {
		t.Errorf("types = %v", got)
	}
}
