package chat

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/config"
)

// StatusBar displays connection and list status at the bottom.
type StatusBar struct {
	*tview.TextView
	cfg        *config.Config
	connStatus string
	listText   string
	errText    string
}

// NewStatusBar creates a themed status bar.
func NewStatusBar(cfg *config.Config) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	tv.SetBackgroundColor(cfg.Theme.StatusBar.Background.Background())
	tv.SetTextColor(cfg.Theme.StatusBar.Text.Foreground())

	return &StatusBar{
		TextView: tv,
		cfg:      cfg,
	}
}

// SetConnectionStatus updates the connection status text.
func (sb *StatusBar) SetConnectionStatus(s string) {
	sb.connStatus = s
	sb.render()
}

// SetListState summarizes a list snapshot.
func (sb *StatusBar) SetListState(st chanlist.State) {
	switch st.Status {
	case chanlist.StatusLoading:
		sb.listText = "loading channels..."
	case chanlist.StatusRefreshing:
		sb.listText = fmt.Sprintf("%d channels, loading more...", len(st.Items))
	default:
		sb.listText = fmt.Sprintf("%d channels", len(st.Items))
		if st.HasNextPage {
			sb.listText += ", more available"
		}
	}
	sb.errText = ""
	if st.Err != nil {
		sb.errText = st.Err.Error()
	}
	sb.render()
}

// render rebuilds the status bar text from current state.
func (sb *StatusBar) render() {
	text := " " + sb.connStatus
	if sb.listText != "" {
		text += "  |  " + sb.listText
	}
	if sb.errText != "" {
		style := sb.cfg.Theme.StatusBar.Error
		text += "  |  " + style.Tag() + tview.Escape(sb.errText) + style.Reset()
	}
	sb.TextView.SetText(text)
}
