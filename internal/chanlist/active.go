package chanlist

// Tracker owns the active channel selection.
type Tracker struct {
	active   string
	onChange func(id string)
	notify   func(Change)
}

// NewTracker returns a tracker with nothing selected. onChange, if set, is
// called with the new ID (empty when cleared) every time the selection
// actually changes.
func NewTracker(onChange func(id string), notify func(Change)) *Tracker {
	if notify == nil {
		notify = func(Change) {}
	}
	return &Tracker{onChange: onChange, notify: notify}
}

// ID returns the active channel ID, or "" when nothing is active.
func (t *Tracker) ID() string { return t.active }

// Select makes id active. Reselecting the active channel is a no-op; an
// empty id clears the selection. It reports whether the selection changed.
func (t *Tracker) Select(id string) bool {
	if id == t.active {
		return false
	}
	t.active = id
	if t.onChange != nil {
		t.onChange(id)
	}
	t.notify(Change{Kind: ChangeActive, IDs: []string{id}})
	return true
}

// Clear deselects the active channel.
func (t *Tracker) Clear() bool { return t.Select("") }

// ClearIf clears the selection when id is the active channel.
func (t *Tracker) ClearIf(id string) bool {
	if id == "" || id != t.active {
		return false
	}
	return t.Clear()
}

// Retain clears the selection when the active channel is no longer in s.
// A reload keeps the user's choice otherwise.
func (t *Tracker) Retain(s *Store) bool {
	if t.active == "" || s.Has(t.active) {
		return false
	}
	return t.Clear()
}

// SelectionPolicy configures selection after a fresh page load.
type SelectionPolicy struct {
	CustomActiveChannel string
	SetOnMount          bool
	// Ceiling skips auto-selection when the first page holds more channels
	// than this.
	Ceiling int
}

// OnPageLoaded applies the initial selection policy after the first page,
// holding fetched channels, was applied to s: the custom channel is
// selected and moved to the top when present, otherwise the first channel
// is selected when SetOnMount is true. Channels inserted by events while
// the page was in flight do not count against the ceiling.
func (t *Tracker) OnPageLoaded(s *Store, fetched int, p SelectionPolicy) {
	if fetched == 0 || s.Len() == 0 {
		return
	}
	if p.Ceiling > 0 && fetched > p.Ceiling {
		return
	}

	if p.CustomActiveChannel != "" {
		if s.Has(p.CustomActiveChannel) {
			t.Select(p.CustomActiveChannel)
			s.ReorderToTop(p.CustomActiveChannel)
		}
		return
	}

	if p.SetOnMount {
		t.Select(s.items[0].ID)
	}
}
