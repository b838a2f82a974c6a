package chanlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned by List methods after Close.
var ErrClosed = errors.New("channel list closed")

// Token identifies one event subscription.
type Token string

// Client is the chat backend the list is built on.
type Client interface {
	Querier
	// Subscribe registers fn for events of the given wire type.
	Subscribe(eventType string, fn func(RawEvent)) Token
	// Unsubscribe removes a registration. Unknown tokens are ignored.
	Unsubscribe(tok Token)
}

// QueryError wraps a failed initial or paginated fetch.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query channels (%s): %v", e.Op, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// State is a consistent snapshot of the list.
type State struct {
	Items           []Channel
	Status          Status
	HasNextPage     bool
	ActiveChannelID string
	Err             error
}

type options struct {
	pageLimit           int
	ceiling             int
	sort                SortSpec
	filters             Filters
	policy              Policy
	setActiveOnMount    bool
	customActiveChannel string
	overrides           map[Kind]Handler
	renderFilter        func([]Channel) []Channel
	onActiveChange      func(id string)
	logger              *slog.Logger
	queueSize           int
}

// Option configures a List.
type Option func(*options)

// WithPageLimit sets the page size, clamped to [1, MaxPageLimit]. An
// explicit limit also becomes the auto-selection ceiling; n <= 0 keeps the
// defaults.
func WithPageLimit(n int) Option {
	return func(o *options) {
		if n <= 0 {
			o.pageLimit, o.ceiling = DefaultPageLimit, MaxPageLimit
			return
		}
		o.pageLimit = min(n, MaxPageLimit)
		o.ceiling = o.pageLimit
	}
}

func WithSort(spec SortSpec) Option      { return func(o *options) { o.sort = spec } }
func WithFilters(f Filters) Option       { return func(o *options) { o.filters = f } }
func WithLogger(l *slog.Logger) Option   { return func(o *options) { o.logger = l } }
func WithLockChannelOrder(v bool) Option { return func(o *options) { o.policy.LockChannelOrder = v } }
func WithReorderOnUpdate(v bool) Option  { return func(o *options) { o.policy.ReorderOnUpdate = v } }
func WithSetActiveChannelOnMount(v bool) Option {
	return func(o *options) { o.setActiveOnMount = v }
}

func WithAllowNewMessagesFromUnfilteredChannels(v bool) Option {
	return func(o *options) { o.policy.AllowNewMessagesFromUnfilteredChannels = v }
}

// WithCustomActiveChannel selects id after the first page loads, if the
// page contains it, and moves it to the top.
func WithCustomActiveChannel(id string) Option {
	return func(o *options) { o.customActiveChannel = id }
}

// WithOverride replaces the default handling of kind.
func WithOverride(kind Kind, h Handler) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[Kind]Handler)
		}
		o.overrides[kind] = h
	}
}

// WithRenderFilter filters what VisibleItems returns. The store itself is
// never filtered.
func WithRenderFilter(fn func([]Channel) []Channel) Option {
	return func(o *options) { o.renderFilter = fn }
}

// WithOnActiveChange is called on the task queue whenever the active
// channel changes. It must not call back into the List.
func WithOnActiveChange(fn func(id string)) Option {
	return func(o *options) { o.onActiveChange = fn }
}

// List is a paginated channel list kept in sync with real-time events.
type List struct {
	client  Client
	opts    options
	log     *slog.Logger
	store   *Store
	tracker *Tracker
	engine  *Engine

	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	started bool
	closing bool
	tokens  []Token

	notifier *notifier
}

// New creates a list on top of client. The list does nothing until Start.
func New(client Client, opts ...Option) *List {
	o := options{
		pageLimit:        DefaultPageLimit,
		ceiling:          MaxPageLimit,
		sort:             DefaultSort(),
		setActiveOnMount: true,
		policy: Policy{
			AllowNewMessagesFromUnfilteredChannels: true,
		},
		queueSize: 256,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	l := &List{
		client:   client,
		opts:     o,
		log:      o.logger.With("component", "chanlist"),
		queue:    make(chan func(), o.queueSize),
		done:     make(chan struct{}),
		notifier: newNotifier(),
	}
	l.store = NewStore(o.pageLimit, o.sort, o.policy.LockChannelOrder, l.notifier.push)
	l.tracker = NewTracker(o.onActiveChange, l.notifier.push)
	l.engine = NewEngine(l.store, l.tracker, o.policy, o.overrides, l.log)

	go l.run()
	go l.notifier.run()
	return l
}

func (l *List) run() {
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.done:
			return
		}
	}
}

// do runs fn on the task queue and waits for it to finish.
func (l *List) do(fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.queue <- task:
	case <-l.done:
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// post enqueues fn without waiting. Posts from one goroutine run in order.
func (l *List) post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Start subscribes to every event kind and runs the initial query. Events
// that arrive while the query is in flight are applied immediately. The
// returned error is the initial query's failure, if any; the list stays
// usable and the query can be retried with Reload or LoadNextPage.
func (l *List) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	for _, k := range Kinds() {
		tok := l.client.Subscribe(k.String(), l.receive)
		l.tokens = append(l.tokens, tok)
	}
	l.mu.Unlock()

	return l.fetch(ctx, "initial", true)
}

// receive is registered with the client for every kind.
func (l *List) receive(raw RawEvent) {
	l.post(func() { _ = l.engine.Handle(raw) })
}

// Close unsubscribes every handler and stops the task queue. A fetch that
// resolves after Close is discarded.
func (l *List) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closing = true
		tokens := l.tokens
		l.tokens = nil
		l.mu.Unlock()
		for _, tok := range tokens {
			l.client.Unsubscribe(tok)
		}

		_ = l.do(l.store.close)
		close(l.done)
		l.notifier.stop()
	})
}

// LoadNextPage fetches and appends the next page. It is a no-op while a
// fetch is in flight or when there are no more pages.
func (l *List) LoadNextPage(ctx context.Context) error {
	return l.fetch(ctx, "next page", false)
}

// Reload re-runs the query from the first page. Stale items stay visible
// until the response replaces them.
func (l *List) Reload(ctx context.Context) error {
	return l.fetch(ctx, "reload", true)
}

func (l *List) fetch(ctx context.Context, op string, fromStart bool) error {
	var (
		req   QueryOptions
		ok    bool
		reset bool
	)
	err := l.do(func() {
		if fromStart {
			reset = l.store.loaded
			req, ok = l.store.beginLoad()
		} else {
			req, ok = l.store.beginNextPage()
		}
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	page, qerr := l.client.QueryChannels(ctx, l.opts.filters, l.opts.sort, req)

	var result error
	err = l.do(func() {
		if qerr != nil {
			result = &QueryError{Op: op, Err: qerr}
			l.log.Error("channel query failed", "op", op, "cursor", req.Cursor, "error", qerr)
			l.store.failFetch(result)
			return
		}
		switch {
		case l.store.applyPage(page, reset):
			l.tracker.OnPageLoaded(l.store, len(page.Channels), l.selectionPolicy())
		case reset:
			l.tracker.Retain(l.store)
		}
		l.log.Debug("channel page applied", "op", op, "count", len(page.Channels),
			"total", l.store.Len(), "has_next", page.HasNextPage)
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return result
}

func (l *List) selectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		CustomActiveChannel: l.opts.customActiveChannel,
		SetOnMount:          l.opts.setActiveOnMount,
		Ceiling:             l.opts.ceiling,
	}
}

// Items returns the channels in display order.
func (l *List) Items() []Channel {
	var out []Channel
	_ = l.do(func() { out = l.store.Items() })
	return out
}

// VisibleItems returns Items passed through the render filter.
func (l *List) VisibleItems() []Channel {
	items := l.Items()
	if l.opts.renderFilter != nil {
		return l.opts.renderFilter(items)
	}
	return items
}

// State returns a consistent snapshot of everything the list exposes.
func (l *List) State() State {
	var st State
	_ = l.do(func() {
		st = State{
			Items:           l.store.Items(),
			Status:          l.store.Status(),
			HasNextPage:     l.store.HasNextPage(),
			ActiveChannelID: l.tracker.ID(),
			Err:             l.store.Err(),
		}
	})
	if l.opts.renderFilter != nil {
		st.Items = l.opts.renderFilter(st.Items)
	}
	return st
}

func (l *List) Status() Status {
	st := StatusLoading
	_ = l.do(func() { st = l.store.Status() })
	return st
}

func (l *List) HasNextPage() bool {
	var v bool
	_ = l.do(func() { v = l.store.HasNextPage() })
	return v
}

// Err returns the last fetch failure, cleared by the next success.
func (l *List) Err() error {
	var err error
	_ = l.do(func() { err = l.store.Err() })
	return err
}

// ActiveChannelID returns the active channel, or "".
func (l *List) ActiveChannelID() string {
	var id string
	_ = l.do(func() { id = l.tracker.ID() })
	return id
}

// SelectActiveChannel makes id active. Reselecting is a no-op and an empty
// id clears the selection.
func (l *List) SelectActiveChannel(id string) error {
	return l.do(func() { l.tracker.Select(id) })
}

// Observe registers fn for change notifications. Observers run on their
// own goroutine, in order, and may call back into the List.
func (l *List) Observe(fn func(Change)) (cancel func()) {
	return l.notifier.add(fn)
}
