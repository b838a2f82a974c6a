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

const (
	pageMain   = "main"
	pagePicker = "picker"
)

// View is the main layout: channels on the left, the active channel's
// details on the right and a status bar below. The channel picker opens
// as a modal page on top.
type View struct {
	*tview.Pages
	app *tview.Application
	cfg *config.Config

	Channels  *ChannelsList
	Details   *tview.TextView
	StatusBar *StatusBar
	Picker    *ChannelsPicker

	items      []chanlist.Channel
	onSelect   OnChannelSelectedFunc
	onReload   func()
	pickerOpen bool
}

// New creates the view.
//
// Layout:
//
//	Pages
//	├── main: Flex (FlexRow)
//	│   ├── Flex (FlexColumn)
//	│   │   ├── Channels (fixed 40 cols)
//	│   │   └── Details (proportional)
//	│   └── StatusBar (fixed 1 row)
//	└── picker: centered ChannelsPicker
func New(app *tview.Application, cfg *config.Config) *View {
	v := &View{
		app: app,
		cfg: cfg,
	}

	v.Channels = NewChannelsList(cfg)
	v.Channels.SetOnChannelSelected(v.selectChannel)

	v.Details = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	v.Details.SetBorder(true).SetTitle(" Channel ")

	v.StatusBar = NewStatusBar(cfg)

	v.Picker = NewChannelsPicker(cfg)
	v.Picker.SetOnSelect(v.selectChannel)
	v.Picker.SetOnClose(v.HidePicker)

	body := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.Channels, 40, 0, true).
		AddItem(v.Details, 0, 1, false)
	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(v.StatusBar, 1, 0, false)

	v.Pages = tview.NewPages().
		AddPage(pageMain, main, true, true).
		AddPage(pagePicker, centered(v.Picker, 60, 20), true, false)

	v.applyBorderStyles()
	return v
}

// SetOnSelect sets the callback that makes a channel active. An empty ID
// clears the selection.
func (v *View) SetOnSelect(fn OnChannelSelectedFunc) { v.onSelect = fn }

// SetOnReload sets the callback for the reload keybinding.
func (v *View) SetOnReload(fn func()) { v.onReload = fn }

// SetOnLoadMore sets the callback that requests the next page.
func (v *View) SetOnLoadMore(fn func()) { v.Channels.SetOnLoadMore(fn) }

// Render redraws every panel from a list snapshot. It must run on the
// tview event loop.
func (v *View) Render(st chanlist.State) {
	v.items = st.Items
	v.Channels.Render(st)
	v.StatusBar.SetListState(st)
	v.renderDetails(st)
	if v.pickerOpen {
		v.Picker.SetData(st.Items)
	}
}

// HandleKey processes view-level keybindings. Returns nil to consume the event.
func (v *View) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if v.pickerOpen {
		return event
	}

	switch {
	case keys.Matches(event, v.cfg.Keybinds.ChannelPicker):
		v.ShowPicker()
		return nil
	case keys.Matches(event, v.cfg.Keybinds.ClearActive):
		v.selectChannel("")
		return nil
	case keys.Matches(event, v.cfg.Keybinds.Reload):
		if v.onReload != nil {
			v.onReload()
		}
		return nil
	}
	return event
}

// ShowPicker opens the channel picker over the main page.
func (v *View) ShowPicker() {
	v.Picker.SetData(v.items)
	v.Picker.Reset()
	v.pickerOpen = true
	v.ShowPage(pagePicker)
	if v.app != nil {
		v.app.SetFocus(v.Picker)
	}
}

// HidePicker closes the picker and returns focus to the channels panel.
func (v *View) HidePicker() {
	v.pickerOpen = false
	v.HidePage(pagePicker)
	if v.app != nil {
		v.app.SetFocus(v.Channels)
	}
}

func (v *View) selectChannel(id string) {
	if v.onSelect != nil {
		v.onSelect(id)
	}
}

func (v *View) renderDetails(st chanlist.State) {
	var active *chanlist.Channel
	for i := range st.Items {
		if st.Items[i].ID == st.ActiveChannelID {
			active = &st.Items[i]
			break
		}
	}
	if active == nil {
		v.Details.SetTitle(" Channel ")
		v.Details.SetText(" [::d]No channel selected[::-]")
		return
	}

	v.Details.SetTitle(" " + tview.Escape(channelDisplayText(*active, v.cfg.UI.ASCIIIcons)) + " ")
	v.Details.SetText(channelDetails(*active))
}

// channelDetails formats the summary shown for the active channel.
func channelDetails(ch chanlist.Channel) string {
	var b strings.Builder
	fmt.Fprintf(&b, " [::b]%s[::-]\n", tview.Escape(ch.Name))
	if ch.Topic != "" {
		fmt.Fprintf(&b, " %s\n", tview.Escape(ch.Topic))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, " Type:    %s\n", ch.Type)
	if n := ch.Data["num_members"]; n != "" {
		fmt.Fprintf(&b, " Members: %s\n", n)
	} else if len(ch.Members) > 0 {
		fmt.Fprintf(&b, " Members: %d\n", len(ch.Members))
	}
	if len(ch.Watchers) > 0 {
		fmt.Fprintf(&b, " Online:  %d/%d\n", ch.OnlineCount(), len(ch.Watchers))
	}
	if ch.UnreadCount > 0 {
		fmt.Fprintf(&b, " Unread:  %d\n", ch.UnreadCount)
	}
	if ch.Data["archived"] == "true" {
		b.WriteString(" [::d]archived[::-]\n")
	}
	if msg := ch.LastMessage; msg != nil {
		fmt.Fprintf(&b, "\n Last message %s\n", msg.CreatedAt.Local().Format("Jan 2 15:04"))
		fmt.Fprintf(&b, " %s\n", tview.Escape(previewLine(msg.Text, 200)))
	}
	return b.String()
}

// centered wraps p in flexes so it is drawn width x height in the middle
// of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// applyBorderStyles colors the panel borders from the theme. The channels
// panel holds focus except while the picker is open.
func (v *View) applyBorderStyles() {
	focusedFg, _, _ := v.cfg.Theme.Border.Focused.Style.Decompose()
	normalFg, _, _ := v.cfg.Theme.Border.Normal.Style.Decompose()
	focusedTitleFg, _, _ := v.cfg.Theme.Title.Focused.Style.Decompose()
	normalTitleFg, _, _ := v.cfg.Theme.Title.Normal.Style.Decompose()

	v.Channels.SetBorderColor(focusedFg)
	v.Channels.SetTitleColor(focusedTitleFg)

	v.Details.SetBorderColor(normalFg)
	v.Details.SetTitleColor(normalTitleFg)

	v.Picker.SetBorderColor(focusedFg)
	v.Picker.SetTitleColor(focusedTitleFg)
}
