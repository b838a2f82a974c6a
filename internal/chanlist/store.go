package chanlist

import (
	"context"
	"slices"
)

// Page size bounds.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 30
)

// Status is the fetch state of the collection.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusRefreshing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusRefreshing:
		return "refreshing"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Filters describes which channels a query returns.
type Filters struct {
	Types           []string
	ExcludeArchived bool
	MemberOnly      bool
}

// QueryOptions carries pagination for one query.
type QueryOptions struct {
	Limit  int
	Cursor string
}

// Page is one query response.
type Page struct {
	Channels    []Channel
	Cursor      string
	HasNextPage bool
}

// Querier fetches pages of channels.
type Querier interface {
	QueryChannels(ctx context.Context, filters Filters, sort SortSpec, opts QueryOptions) (Page, error)
}

// ChangeKind describes what an observer should redraw.
type ChangeKind int

const (
	ChangeReset ChangeKind = iota
	ChangeInserted
	ChangeRemoved
	ChangeMoved
	ChangeUpdated
	ChangeWatchers
	ChangeStatus
	ChangeActive
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeInserted:
		return "inserted"
	case ChangeRemoved:
		return "removed"
	case ChangeMoved:
		return "moved"
	case ChangeUpdated:
		return "updated"
	case ChangeWatchers:
		return "watchers"
	case ChangeStatus:
		return "status"
	case ChangeActive:
		return "active"
	}
	return "unknown"
}

// Change is emitted after every observable mutation.
type Change struct {
	Kind ChangeKind
	IDs  []string
}

// Mutator is the mutation contract handed to event handlers, including
// caller overrides. Every method is a total function: missing IDs are
// no-ops and no method ever leaves a duplicate ID behind.
type Mutator interface {
	Items() []Channel
	Get(id string) (Channel, bool)
	Has(id string) bool
	Upsert(ch Channel) bool
	InsertAtTop(ch Channel)
	Update(id string, fn func(*Channel)) bool
	Replace(ch Channel) bool
	Remove(id string) bool
	ReorderToTop(id string) bool
	ForceRevision(id string) bool
}

// Store owns the ordered channel collection and its pagination state. It is
// not safe for concurrent use; a List serialises every call on its task
// queue.
type Store struct {
	items       []Channel
	cursor      string
	hasNextPage bool
	status      Status
	err         error
	fetching    bool
	loaded      bool
	closed      bool

	pageLimit int
	sort      SortSpec
	lockOrder bool

	notify func(Change)
}

// NewStore returns an empty store in the loading state.
func NewStore(pageLimit int, sort SortSpec, lockOrder bool, notify func(Change)) *Store {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if notify == nil {
		notify = func(Change) {}
	}
	return &Store{
		hasNextPage: true,
		status:      StatusLoading,
		pageLimit:   pageLimit,
		sort:        sort,
		lockOrder:   lockOrder,
		notify:      notify,
	}
}

func (s *Store) Status() Status      { return s.status }
func (s *Store) HasNextPage() bool   { return s.hasNextPage }
func (s *Store) Cursor() string      { return s.cursor }
func (s *Store) Err() error          { return s.err }
func (s *Store) Len() int            { return len(s.items) }
func (s *Store) Has(id string) bool  { return indexOf(s.items, id) >= 0 }
func (s *Store) Index(id string) int { return indexOf(s.items, id) }

// Items returns a deep copy of the collection in display order.
func (s *Store) Items() []Channel { return cloneChannels(s.items) }

// Get returns a copy of the channel with id.
func (s *Store) Get(id string) (Channel, bool) {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return Channel{}, false
	}
	return s.items[idx].Clone(), true
}

// beginLoad starts a query from the first page. The status becomes loading
// when nothing is shown yet and refreshing otherwise.
func (s *Store) beginLoad() (QueryOptions, bool) {
	if s.closed || s.fetching {
		return QueryOptions{}, false
	}
	s.fetching = true
	if len(s.items) == 0 {
		s.setStatus(StatusLoading)
	} else {
		s.setStatus(StatusRefreshing)
	}
	return QueryOptions{Limit: s.pageLimit}, true
}

// beginNextPage starts a query for the page after the stored cursor. It
// refuses while a fetch is in flight or there is nothing left to fetch.
func (s *Store) beginNextPage() (QueryOptions, bool) {
	if s.closed || s.fetching || !s.hasNextPage {
		return QueryOptions{}, false
	}
	if s.status == StatusLoading || s.status == StatusRefreshing {
		return QueryOptions{}, false
	}
	s.fetching = true
	s.setStatus(StatusRefreshing)
	return QueryOptions{Limit: s.pageLimit, Cursor: s.cursor}, true
}

// applyPage commits a successful fetch. With reset the page replaces the
// collection; otherwise it is appended, and channels already present keep
// their position and are updated in place. It reports whether this was the
// first successful load, the only one that drives active-channel selection.
func (s *Store) applyPage(page Page, reset bool) (fresh bool) {
	if s.closed {
		return false
	}
	fresh = !s.loaded

	incoming := dedupe(page.Channels)
	for i := range incoming {
		incoming[i].refreshSortKey()
	}
	if len(s.sort) > 0 {
		SortChannels(incoming, s.sort)
	}

	if reset {
		s.items = incoming
		s.notify(Change{Kind: ChangeReset})
	} else {
		var added, updated []string
		for _, ch := range incoming {
			if idx := indexOf(s.items, ch.ID); idx >= 0 {
				s.items[idx].merge(ch)
				s.items[idx].Revision++
				updated = append(updated, ch.ID)
				continue
			}
			s.items = append(s.items, ch)
			added = append(added, ch.ID)
		}
		if len(added) > 0 {
			s.notify(Change{Kind: ChangeInserted, IDs: added})
		}
		if len(updated) > 0 {
			s.notify(Change{Kind: ChangeUpdated, IDs: updated})
		}
	}

	s.cursor = page.Cursor
	s.hasNextPage = page.HasNextPage
	s.err = nil
	s.fetching = false
	s.loaded = true
	s.setStatus(StatusReady)
	return fresh
}

// failFetch records a failed fetch. Items are left untouched.
func (s *Store) failFetch(err error) {
	if s.closed {
		return
	}
	s.fetching = false
	s.err = err
	s.setStatus(StatusError)
}

func (s *Store) close() { s.closed = true }

func (s *Store) setStatus(st Status) {
	if s.status == st {
		return
	}
	s.status = st
	s.notify(Change{Kind: ChangeStatus})
}

// Upsert merges ch into an existing entry and bumps its revision, or inserts
// it as a new item: at the top, or at the bottom when the order is locked.
// It reports whether ch was inserted.
func (s *Store) Upsert(ch Channel) bool {
	if ch.ID == "" {
		return false
	}
	if idx := indexOf(s.items, ch.ID); idx >= 0 {
		s.items[idx].merge(ch)
		s.items[idx].Revision++
		s.notify(Change{Kind: ChangeUpdated, IDs: []string{ch.ID}})
		return false
	}
	ch = ch.Clone()
	ch.refreshSortKey()
	if s.lockOrder {
		s.items = append(s.items, ch)
	} else {
		s.items = slices.Insert(s.items, 0, ch)
	}
	s.notify(Change{Kind: ChangeInserted, IDs: []string{ch.ID}})
	return true
}

// InsertAtTop upserts ch and moves it to the top regardless of lock order.
func (s *Store) InsertAtTop(ch Channel) {
	if ch.ID == "" {
		return
	}
	if idx := indexOf(s.items, ch.ID); idx >= 0 {
		s.items[idx].merge(ch)
		s.items[idx].Revision++
		s.notify(Change{Kind: ChangeUpdated, IDs: []string{ch.ID}})
		s.ReorderToTop(ch.ID)
		return
	}
	ch = ch.Clone()
	ch.refreshSortKey()
	s.items = slices.Insert(s.items, 0, ch)
	s.notify(Change{Kind: ChangeInserted, IDs: []string{ch.ID}})
}

// Update applies fn to the channel with id, recomputes its sort key and
// bumps its revision. The ID cannot be changed through fn.
func (s *Store) Update(id string, fn func(*Channel)) bool {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return false
	}
	ch := &s.items[idx]
	fn(ch)
	ch.ID = id
	ch.refreshSortKey()
	ch.Revision++
	s.notify(Change{Kind: ChangeUpdated, IDs: []string{id}})
	return true
}

// Replace swaps the stored summary for ch in place, keeping watchers the
// new summary does not carry and bumping the revision past the old one.
func (s *Store) Replace(ch Channel) bool {
	idx := indexOf(s.items, ch.ID)
	if idx < 0 {
		return false
	}
	old := s.items[idx]
	next := ch.Clone()
	for uid, p := range old.Watchers {
		if next.Watchers == nil {
			next.Watchers = make(WatcherInfo)
		}
		if _, ok := next.Watchers[uid]; !ok {
			next.Watchers[uid] = p
		}
	}
	next.refreshSortKey()
	next.Revision = old.Revision + 1
	s.items[idx] = next
	s.notify(Change{Kind: ChangeUpdated, IDs: []string{ch.ID}})
	return true
}

// Remove deletes the channel with id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) bool {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	s.notify(Change{Kind: ChangeRemoved, IDs: []string{id}})
	return true
}

// ReorderToTop moves the channel with id to index 0.
func (s *Store) ReorderToTop(id string) bool {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return false
	}
	if idx > 0 {
		s.items = MoveToTop(id, s.items)
		s.notify(Change{Kind: ChangeMoved, IDs: []string{id}})
	}
	return true
}

// Reposition moves the channel with id to its sorted position among the
// other items. Without a sort spec the server order stands.
func (s *Store) Reposition(id string) bool {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return false
	}
	if len(s.sort) == 0 {
		return true
	}
	ch := s.items[idx]
	rest := slices.Delete(slices.Clone(s.items), idx, idx+1)
	pos := sortedPosition(ch, rest, s.sort)
	s.items = slices.Insert(rest, pos, ch)
	if pos != idx {
		s.notify(Change{Kind: ChangeMoved, IDs: []string{id}})
	}
	return true
}

// ForceRevision bumps the revision of id without touching other fields.
func (s *Store) ForceRevision(id string) bool {
	idx := indexOf(s.items, id)
	if idx < 0 {
		return false
	}
	s.items[idx].Revision++
	s.notify(Change{Kind: ChangeUpdated, IDs: []string{id}})
	return true
}

// ForceRevisionAll bumps the revision of every item.
func (s *Store) ForceRevisionAll() {
	if len(s.items) == 0 {
		return
	}
	ids := make([]string, len(s.items))
	for i := range s.items {
		s.items[i].Revision++
		ids[i] = s.items[i].ID
	}
	s.notify(Change{Kind: ChangeUpdated, IDs: ids})
}

// MergeWatchers records the presence and status of u on every channel it
// belongs to. Revisions are not bumped. It returns the affected channel IDs.
func (s *Store) MergeWatchers(u User) []string {
	var ids []string
	for i := range s.items {
		ch := &s.items[i]
		if !ch.hasMember(u.ID) {
			continue
		}
		if ch.Watchers == nil {
			ch.Watchers = make(WatcherInfo)
		}
		p := ch.Watchers[u.ID]
		if u.Name != "" {
			p.Name = u.Name
		}
		if u.HasPresence {
			p.Online = u.Online
		}
		p.Status = u.Status
		if !u.LastActive.IsZero() {
			p.LastActive = u.LastActive
		}
		ch.Watchers[u.ID] = p
		ids = append(ids, ch.ID)
	}
	if len(ids) > 0 {
		s.notify(Change{Kind: ChangeWatchers, IDs: ids})
	}
	return ids
}

// dedupe drops repeated IDs within one page, keeping the first occurrence.
func dedupe(channels []Channel) []Channel {
	seen := make(map[string]bool, len(channels))
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.ID == "" || seen[ch.ID] {
			continue
		}
		seen[ch.ID] = true
		out = append(out, ch.Clone())
	}
	return out
}
