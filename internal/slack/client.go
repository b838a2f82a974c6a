package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/events"
)

// Client adapts the Slack Web and Socket Mode APIs to chanlist.Client.
// Subscriptions are served by the embedded dispatcher; RunSocketMode
// publishes translated events into it.
type Client struct {
	*events.Dispatcher

	api     *slack.Client
	limiter *rate.Limiter
	log     *slog.Logger

	UserID   string
	TeamID   string
	TeamName string
	UserName string

	mu      sync.Mutex
	watched map[string]bool
	users   map[string]string
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	apiURL string
	limit  rate.Limit
	burst  int
	log    *slog.Logger
}

// WithAPIURL points the client at a different Web API endpoint.
func WithAPIURL(url string) Option {
	return func(o *clientOptions) { o.apiURL = url }
}

// WithRateLimit caps outgoing Web API calls.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		o.limit = rate.Limit(perSecond)
		o.burst = burst
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// New creates a Client, validates the tokens via AuthTest, and populates
// the identity fields.
func New(ctx context.Context, userToken, appToken string, opts ...Option) (*Client, error) {
	if !strings.HasPrefix(appToken, "xapp-") {
		return nil, fmt.Errorf("app token must start with xapp- (got %s...)", safePrefix(appToken))
	}

	o := clientOptions{limit: 1, burst: 3, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	apiOpts := []slack.Option{slack.OptionAppLevelToken(appToken)}
	if o.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(o.apiURL))
	}
	c := newClient(slack.New(userToken, apiOpts...), o)

	var resp *slack.AuthTestResponse
	err := c.call(ctx, func() error {
		var e error
		resp, e = c.api.AuthTestContext(ctx)
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("auth test: %w", err)
	}

	c.UserID = resp.UserID
	c.TeamID = resp.TeamID
	c.TeamName = resp.Team
	c.UserName = resp.User
	return c, nil
}

func newClient(api *slack.Client, o clientOptions) *Client {
	if o.log == nil {
		o.log = slog.Default()
	}
	return &Client{
		Dispatcher: events.NewDispatcher(),
		api:        api,
		limiter:    rate.NewLimiter(o.limit, o.burst),
		log:        o.log.With("component", "slack"),
		watched:    make(map[string]bool),
	}
}

// API returns the underlying slack.Client for direct access (e.g. socketmode).
func (c *Client) API() *slack.Client { return c.api }

// call waits for the limiter and runs fn, retrying once when Slack answers
// with a rate-limit error.
func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return retryOnRateLimit(ctx, fn)
}

// retryOnRateLimit executes fn and, if a RateLimitedError is returned,
// sleeps for the requested duration and retries once.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		t := time.NewTimer(rle.RetryAfter)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		return fn()
	}
	return err
}

// QueryChannels returns one page of conversations. Every returned channel
// becomes watched, so later messages in it arrive as message.new.
func (c *Client) QueryChannels(ctx context.Context, filters chanlist.Filters, _ chanlist.SortSpec, opts chanlist.QueryOptions) (chanlist.Page, error) {
	params := &slack.GetConversationsParameters{
		Cursor:          opts.Cursor,
		Limit:           opts.Limit,
		ExcludeArchived: filters.ExcludeArchived,
		Types:           conversationTypes(filters.Types),
	}

	var (
		channels []slack.Channel
		next     string
	)
	err := c.call(ctx, func() error {
		var e error
		channels, next, e = c.api.GetConversationsContext(ctx, params)
		return e
	})
	if err != nil {
		return chanlist.Page{}, err
	}

	users := c.userNames(ctx)
	page := chanlist.Page{Cursor: next, HasNextPage: next != ""}
	for _, ch := range channels {
		if filters.MemberOnly && !ch.IsMember && !ch.IsIM && !ch.IsMpIM {
			continue
		}
		page.Channels = append(page.Channels, toSummary(ch, users))
	}
	c.watch(page.Channels...)
	return page, nil
}

// GetChannel fetches one conversation summary and watches it.
func (c *Client) GetChannel(ctx context.Context, id string) (*chanlist.Channel, error) {
	var ch *slack.Channel
	err := c.call(ctx, func() error {
		var e error
		ch, e = c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
			ChannelID:         id,
			IncludeNumMembers: true,
		})
		return e
	})
	if err != nil {
		return nil, fmt.Errorf("conversation info %s: %w", id, err)
	}
	summary := toSummary(*ch, c.userNames(ctx))
	c.watch(summary)
	return &summary, nil
}

func (c *Client) watch(channels ...chanlist.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		c.watched[ch.ID] = true
	}
}

func (c *Client) unwatch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watched, id)
}

// Watched reports whether id was returned by a previous query.
func (c *Client) Watched(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watched[id]
}

// userNames loads the workspace directory once. Failures are logged and
// retried on the next call; DM channels fall back to user IDs meanwhile.
func (c *Client) userNames(ctx context.Context) map[string]string {
	c.mu.Lock()
	users := c.users
	c.mu.Unlock()
	if users != nil {
		return users
	}

	var list []slack.User
	err := c.call(ctx, func() error {
		var e error
		list, e = c.api.GetUsersContext(ctx)
		return e
	})
	if err != nil {
		c.log.Warn("failed to load users", "error", err)
		return nil
	}

	users = make(map[string]string, len(list))
	for _, u := range list {
		users[u.ID] = displayName(u)
	}
	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
	return users
}

func displayName(u slack.User) string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}

// conversationTypes maps channel list types to conversations.list types.
func conversationTypes(types []string) []string {
	if len(types) == 0 {
		return []string{"public_channel", "private_channel", "mpim", "im"}
	}
	var out []string
	for _, t := range types {
		switch t {
		case chanlist.TypePublic:
			out = append(out, "public_channel")
		case chanlist.TypePrivate:
			out = append(out, "private_channel")
		case chanlist.TypeDM:
			out = append(out, "im")
		case chanlist.TypeGroupDM:
			out = append(out, "mpim")
		}
	}
	return out
}

func channelType(ch slack.Channel) string {
	switch {
	case ch.IsIM:
		return chanlist.TypeDM
	case ch.IsMpIM:
		return chanlist.TypeGroupDM
	case ch.IsExtShared:
		return chanlist.TypeShared
	case ch.IsPrivate || ch.IsGroup:
		return chanlist.TypePrivate
	}
	return chanlist.TypePublic
}

// toSummary converts a Slack conversation into a channel summary.
func toSummary(ch slack.Channel, users map[string]string) chanlist.Channel {
	s := chanlist.Channel{
		ID:          ch.ID,
		Type:        channelType(ch),
		Name:        ch.Name,
		Topic:       ch.Topic.Value,
		Members:     ch.Members,
		UnreadCount: ch.UnreadCountDisplay,
		CreatedAt:   ch.Created.Time(),
		Data:        map[string]string{},
	}
	if ch.IsArchived {
		s.Data["archived"] = "true"
	}
	if ch.NumMembers > 0 {
		s.Data["num_members"] = strconv.Itoa(ch.NumMembers)
	}
	if ch.Topic.Value == "" {
		s.Topic = ch.Purpose.Value
	}
	if ch.Topic.LastSet != 0 {
		s.UpdatedAt = ch.Topic.LastSet.Time()
	}
	if ch.IsIM {
		s.Members = append(s.Members, ch.User)
		s.Data["user"] = ch.User
		if name, ok := users[ch.User]; ok {
			s.Name = name
		} else if s.Name == "" {
			s.Name = ch.User
		}
	}
	if ch.Latest != nil && ch.Latest.Timestamp != "" {
		s.LastMessage = &chanlist.MessagePreview{
			ID:        ch.Latest.Timestamp,
			UserID:    ch.Latest.User,
			Text:      ch.Latest.Text,
			CreatedAt: parseTS(ch.Latest.Timestamp),
		}
	}
	return s
}

// parseTS converts a Slack "seconds.micros" timestamp. Malformed input
// yields the zero time.
func parseTS(ts string) time.Time {
	secs, frac, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var usec int64
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		usec, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(sec, usec*int64(time.Microsecond))
}

// safePrefix returns the first 10 characters of a token for error messages.
func safePrefix(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10]
}
