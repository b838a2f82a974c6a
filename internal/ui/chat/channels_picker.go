package chat

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/config"
	"github.com/m96-chan/chanlist/internal/ui/keys"
)

type pickerEntry struct {
	id     string
	label  string // icon and name, as in the channels panel
	search string // lowercased name and topic
	unread int
}

// pickerEntries is the fuzzy.Source the query is matched against.
type pickerEntries []pickerEntry

func (p pickerEntries) String(i int) string { return p[i].search }
func (p pickerEntries) Len() int            { return len(p) }

// ChannelsPicker is a modal popup for fuzzy-searching the loaded channels
// and making one of them active. Its data follows the list while it is
// open, so results are recomputed on every SetData.
type ChannelsPicker struct {
	*tview.Flex
	cfg      *config.Config
	query    *tview.InputField
	results  *tview.List
	entries  pickerEntries
	shown    []int // indices into entries, in result order
	onSelect OnChannelSelectedFunc
	onClose  func()
}

// NewChannelsPicker creates a new channel picker component.
func NewChannelsPicker(cfg *config.Config) *ChannelsPicker {
	cp := &ChannelsPicker{cfg: cfg}

	cp.query = tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldBackgroundColor(cfg.Theme.Modal.InputBackground.Background())
	cp.query.SetChangedFunc(func(string) { cp.refilter() })
	cp.query.SetInputCapture(cp.handleInput)

	cp.results = tview.NewList().
		SetHighlightFullLine(true).
		ShowSecondaryText(false).
		SetWrapAround(false)

	cp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cp.query, 1, 0, true).
		AddItem(cp.results, 0, 1, false)
	cp.SetBorder(true).SetTitle(" Switch Channel ")

	return cp
}

// SetOnSelect sets the callback run with the chosen channel ID.
func (cp *ChannelsPicker) SetOnSelect(fn OnChannelSelectedFunc) { cp.onSelect = fn }

// SetOnClose sets the callback that hides the picker.
func (cp *ChannelsPicker) SetOnClose(fn func()) { cp.onClose = fn }

// SetData replaces the searchable channels and reapplies the current query.
// The highlighted channel stays highlighted if it is still a result.
func (cp *ChannelsPicker) SetData(channels []chanlist.Channel) {
	cp.entries = make(pickerEntries, len(channels))
	for i, ch := range channels {
		cp.entries[i] = pickerEntry{
			id:     ch.ID,
			label:  channelDisplayText(ch, cp.cfg.UI.ASCIIIcons),
			search: pickerSearchText(ch),
			unread: ch.UnreadCount,
		}
	}
	cp.refilter()
}

// Reset clears the query and shows every channel.
func (cp *ChannelsPicker) Reset() {
	cp.query.SetText("")
	cp.refilter()
}

// FilteredCount returns the number of results currently shown.
func (cp *ChannelsPicker) FilteredCount() int { return len(cp.shown) }

func (cp *ChannelsPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	kb := cp.cfg.Keybinds.ChannelsPicker

	switch {
	case keys.Matches(event, kb.Close), keys.Matches(event, cp.cfg.Keybinds.ChannelPicker):
		cp.close()
	case keys.Matches(event, kb.Select):
		cp.selectCurrent()
	case keys.Matches(event, kb.Up) || event.Key() == tcell.KeyUp:
		cp.move(-1)
	case keys.Matches(event, kb.Down) || event.Key() == tcell.KeyDown:
		cp.move(1)
	default:
		return event
	}
	return nil
}

func (cp *ChannelsPicker) move(delta int) {
	next := cp.results.GetCurrentItem() + delta
	if next >= 0 && next < cp.results.GetItemCount() {
		cp.results.SetCurrentItem(next)
	}
}

// refilter recomputes the results for the current query. Matches are
// ordered by fuzzy score; an empty query keeps list order.
func (cp *ChannelsPicker) refilter() {
	keep := cp.highlighted()

	text := strings.ToLower(strings.TrimSpace(cp.query.GetText()))
	cp.shown = cp.shown[:0]
	if text == "" {
		for i := range cp.entries {
			cp.shown = append(cp.shown, i)
		}
	} else {
		for _, m := range fuzzy.FindFrom(text, cp.entries) {
			cp.shown = append(cp.shown, m.Index)
		}
	}

	cp.results.Clear()
	cursor := 0
	for row, idx := range cp.shown {
		e := cp.entries[idx]
		cp.results.AddItem(pickerLabel(e), "", 0, nil)
		if e.id == keep {
			cursor = row
		}
	}
	if len(cp.shown) > 0 {
		cp.results.SetCurrentItem(cursor)
	}
}

// highlighted returns the ID under the cursor, or "" without results.
func (cp *ChannelsPicker) highlighted() string {
	row := cp.results.GetCurrentItem()
	if row < 0 || row >= len(cp.shown) || cp.shown[row] >= len(cp.entries) {
		return ""
	}
	return cp.entries[cp.shown[row]].id
}

func (cp *ChannelsPicker) selectCurrent() {
	id := cp.highlighted()
	if id == "" {
		return
	}
	if cp.onSelect != nil {
		cp.onSelect(id)
	}
	cp.close()
}

func (cp *ChannelsPicker) close() {
	if cp.onClose != nil {
		cp.onClose()
	}
}

func pickerLabel(e pickerEntry) string {
	label := tview.Escape(e.label)
	if e.unread > 0 {
		label += fmt.Sprintf(" (%d)", e.unread)
	}
	return label
}

// pickerSearchText returns the lowercased text a query is matched against.
func pickerSearchText(ch chanlist.Channel) string {
	text := strings.ToLower(ch.Name)
	if ch.Topic != "" {
		text += " " + strings.ToLower(ch.Topic)
	}
	return text
}
