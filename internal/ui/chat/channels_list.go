package chat

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/config"
	"github.com/m96-chan/chanlist/internal/ui/keys"
)

// OnChannelSelectedFunc is called when the user selects a channel.
type OnChannelSelectedFunc func(channelID string)

// ChannelsList renders the channel list in display order and asks for the
// next page when the cursor gets close to the end.
type ChannelsList struct {
	*tview.List
	cfg *config.Config

	ids       []string
	state     chanlist.State
	rendering bool

	onSelected OnChannelSelectedFunc
	onLoadMore func()
}

// NewChannelsList creates an empty channels panel.
func NewChannelsList(cfg *config.Config) *ChannelsList {
	cl := &ChannelsList{
		List: tview.NewList(),
		cfg:  cfg,
	}

	cl.ShowSecondaryText(cfg.UI.ShowPreview)
	cl.SetHighlightFullLine(true)
	cl.SetWrapAround(false)
	cl.SetMainTextStyle(cfg.Theme.ChannelsList.Channel.Style)
	cl.SetSecondaryTextStyle(cfg.Theme.ChannelsList.Preview.Style)
	cl.SetSelectedStyle(cfg.Theme.ChannelsList.Selected.Style)
	cl.SetBorder(true).SetTitle(" Channels ")

	cl.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if !cl.rendering {
			cl.maybeLoadMore(index)
		}
	})
	cl.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(cl.ids) && cl.onSelected != nil {
			cl.onSelected(cl.ids[index])
		}
	})
	cl.SetInputCapture(cl.handleInput)

	return cl
}

// SetOnChannelSelected sets the callback for channel selection.
func (cl *ChannelsList) SetOnChannelSelected(fn OnChannelSelectedFunc) {
	cl.onSelected = fn
}

// SetOnLoadMore sets the callback that requests the next page.
func (cl *ChannelsList) SetOnLoadMore(fn func()) {
	cl.onLoadMore = fn
}

// Render rebuilds the panel from a list snapshot, keeping the cursor on
// the same channel when it is still present.
func (cl *ChannelsList) Render(st chanlist.State) {
	cl.rendering = true
	defer func() { cl.rendering = false }()

	current := cl.CurrentChannelID()
	cl.state = st
	cl.ids = cl.ids[:0]
	cl.Clear()

	cursor := 0
	for i, ch := range st.Items {
		cl.ids = append(cl.ids, ch.ID)
		if ch.ID == current {
			cursor = i
		}
		cl.AddItem(cl.mainText(ch, ch.ID == st.ActiveChannelID), cl.previewText(ch), 0, nil)
	}
	if len(st.Items) > 0 {
		cl.SetCurrentItem(cursor)
	}

	title := " Channels "
	if st.HasNextPage {
		title = fmt.Sprintf(" Channels (%d+) ", len(st.Items))
	} else if len(st.Items) > 0 {
		title = fmt.Sprintf(" Channels (%d) ", len(st.Items))
	}
	cl.SetTitle(title)
}

// CurrentChannelID returns the channel under the cursor, or "".
func (cl *ChannelsList) CurrentChannelID() string {
	i := cl.GetCurrentItem()
	if i < 0 || i >= len(cl.ids) {
		return ""
	}
	return cl.ids[i]
}

// SelectCurrent fires the selection callback for the channel under the cursor.
func (cl *ChannelsList) SelectCurrent() {
	if id := cl.CurrentChannelID(); id != "" && cl.onSelected != nil {
		cl.onSelected(id)
	}
}

func (cl *ChannelsList) handleInput(event *tcell.EventKey) *tcell.EventKey {
	kb := cl.cfg.Keybinds.ChannelsList
	count := cl.GetItemCount()

	switch {
	case keys.Matches(event, kb.Up):
		if cur := cl.GetCurrentItem(); cur > 0 {
			cl.SetCurrentItem(cur - 1)
		}
		return nil
	case keys.Matches(event, kb.Down):
		if cur := cl.GetCurrentItem(); cur < count-1 {
			cl.SetCurrentItem(cur + 1)
		}
		return nil
	case keys.Matches(event, kb.Top):
		if count > 0 {
			cl.SetCurrentItem(0)
		}
		return nil
	case keys.Matches(event, kb.Bottom):
		if count > 0 {
			cl.SetCurrentItem(count - 1)
		}
		return nil
	case keys.Matches(event, kb.SelectCurrent):
		cl.SelectCurrent()
		return nil
	case keys.Matches(event, kb.LoadMore):
		if cl.state.HasNextPage && cl.onLoadMore != nil {
			cl.onLoadMore()
		}
		return nil
	}
	return event
}

func (cl *ChannelsList) maybeLoadMore(index int) {
	if cl.onLoadMore != nil && shouldLoadMore(cl.state, index, cl.cfg.UI.LoadMoreThreshold) {
		cl.onLoadMore()
	}
}

// shouldLoadMore reports whether the cursor at index is within threshold
// rows of the end of a list that has more pages and is not already fetching.
func shouldLoadMore(st chanlist.State, index, threshold int) bool {
	if !st.HasNextPage || st.Status != chanlist.StatusReady {
		return false
	}
	return index >= len(st.Items)-1-threshold
}

// mainText returns the styled label for one channel.
func (cl *ChannelsList) mainText(ch chanlist.Channel, active bool) string {
	text := channelDisplayText(ch, cl.cfg.UI.ASCIIIcons)
	if ch.UnreadCount > 0 {
		text = fmt.Sprintf("%s (%d)", text, ch.UnreadCount)
	}
	text = tview.Escape(text)

	theme := cl.cfg.Theme.ChannelsList
	switch {
	case active:
		return theme.Active.Tag() + text + theme.Active.Reset()
	case ch.UnreadCount > 0:
		return theme.Unread.Tag() + text + theme.Unread.Reset()
	}
	return text
}

func (cl *ChannelsList) previewText(ch chanlist.Channel) string {
	if !cl.cfg.UI.ShowPreview || ch.LastMessage == nil {
		return ""
	}
	return "  " + tview.Escape(previewLine(ch.LastMessage.Text, 60))
}

// previewLine flattens text to one line of at most n runes.
func previewLine(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-1]) + "…"
}

// channelDisplayText returns the icon-prefixed label for a channel.
func channelDisplayText(ch chanlist.Channel, asciiIcons bool) string {
	switch ch.Type {
	case chanlist.TypeDM:
		pIcon := presenceIcon
		if asciiIcons {
			pIcon = presenceIconASCII
		}
		return fmt.Sprintf("%s %s", pIcon(dmPresence(ch)), ch.Name)
	case chanlist.TypeGroupDM:
		groupIcon := "\U0001F465" // 👥
		if asciiIcons {
			groupIcon = "++"
		}
		if ch.Topic != "" {
			return fmt.Sprintf("%s %s", groupIcon, ch.Topic)
		}
		if ch.Name != "" {
			return fmt.Sprintf("%s %s", groupIcon, ch.Name)
		}
		return fmt.Sprintf("%s Group DM", groupIcon)
	case chanlist.TypeShared:
		linkIcon := "\U0001F517" // 🔗
		if asciiIcons {
			linkIcon = "<>"
		}
		return fmt.Sprintf("%s %s", linkIcon, ch.Name)
	case chanlist.TypePrivate:
		lockIcon := "\U0001F512" // 🔒
		if asciiIcons {
			lockIcon = "@"
		}
		return fmt.Sprintf("%s %s", lockIcon, ch.Name)
	default:
		return fmt.Sprintf("# %s", ch.Name)
	}
}

// dmPresence returns "active", "away" or "" for the other side of a DM.
func dmPresence(ch chanlist.Channel) string {
	p, ok := ch.Watchers[ch.Data["user"]]
	switch {
	case !ok:
		return ""
	case p.Online:
		return "active"
	}
	return "away"
}

// presenceIcon returns a presence dot based on the user's status.
func presenceIcon(presence string) string {
	switch presence {
	case "active":
		return "●"
	case "away":
		return "◐"
	default:
		return "○"
	}
}

// presenceIconASCII returns an ASCII presence indicator.
func presenceIconASCII(presence string) string {
	switch presence {
	case "active":
		return "*"
	case "away":
		return "~"
	default:
		return "o"
	}
}
