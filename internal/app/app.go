package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/config"
	"github.com/m96-chan/chanlist/internal/keyring"
	"github.com/m96-chan/chanlist/internal/notifications"
	slackclient "github.com/m96-chan/chanlist/internal/slack"
	"github.com/m96-chan/chanlist/internal/ui/chat"
	"github.com/m96-chan/chanlist/internal/ui/keys"
	"github.com/m96-chan/chanlist/internal/ui/login"
)

// backend is the part of the Slack client the app drives.
type backend interface {
	chanlist.Client
	RunSocketMode(ctx context.Context) error
}

// App is the top-level application struct.
type App struct {
	Config *config.Config
	tview  *tview.Application

	connect  login.ConnectFn
	identity string
	selfID   string

	list          *chanlist.List
	chatView      *chat.View
	stopObserving func()
	stopNotifying func()
	cancel        context.CancelFunc

	redrawPending atomic.Bool
}

// New creates a new App with the given config.
func New(cfg *config.Config) *App {
	return &App{
		Config: cfg,
		tview:  tview.NewApplication(),
		connect: func(ctx context.Context, userToken, appToken string) (*slackclient.Client, error) {
			return slackclient.New(ctx, userToken, appToken, slackclient.WithLogger(slog.Default()))
		},
	}
}

// Run starts the TUI event loop. It authenticates with stored tokens and
// shows the login form when they are missing or invalid.
func (a *App) Run() error {
	a.tview.EnableMouse(a.Config.UI.Mouse)

	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		sigStop()
		a.requestShutdown()
	}()

	a.tview.SetInputCapture(a.handleGlobalKey)

	a.start()
	return a.tview.Run()
}

// start shows the channel list when the stored tokens authenticate and the
// login form otherwise.
func (a *App) start() {
	user, app, err := keyring.Tokens()
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Warn("error reading tokens", "error", err)
		}
		a.showLogin()
		return
	}

	client, err := a.connect(context.Background(), user, app)
	if err != nil {
		slog.Warn("stored tokens invalid, showing login", "error", err)
		a.showLogin()
		return
	}
	a.useClient(client)
}

// requestShutdown runs shutdown on the event loop. Goroutines other than
// the event loop must use it; the list and view fields belong to the loop.
func (a *App) requestShutdown() {
	a.tview.QueueUpdate(a.shutdown)
}

// shutdown closes the channel list, tears down Socket Mode and stops the TUI.
func (a *App) shutdown() {
	a.stopMain()
	a.tview.Stop()
}

func (a *App) stopMain() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.stopObserving != nil {
		a.stopObserving()
		a.stopObserving = nil
	}
	if a.stopNotifying != nil {
		a.stopNotifying()
		a.stopNotifying = nil
	}
	if a.list != nil {
		a.list.Close()
		a.list = nil
	}
}

// handleGlobalKey processes global keybindings. It returns nil to consume the
// event or the original event to let it propagate.
func (a *App) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	if keys.Matches(event, a.Config.Keybinds.Quit) {
		a.shutdown()
		return nil
	}

	if a.chatView != nil {
		return a.chatView.HandleKey(event)
	}
	return event
}

// showLogin sets the root to the login form.
func (a *App) showLogin() {
	form := login.New(a.tview, a.connect, a.useClient)
	a.tview.SetRoot(form, true)
}

func (a *App) useClient(client *slackclient.Client) {
	a.identity = fmt.Sprintf("%s (%s)", client.UserName, client.TeamName)
	a.selfID = client.UserID
	a.showMain(client)
}

// showMain builds the channel list on top of b, sets the root to the main
// view and starts Socket Mode and the initial query in the background.
func (a *App) showMain(b backend) {
	a.stopMain()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	opts := append(a.Config.ChannelList.ListOptions(),
		chanlist.WithLogger(slog.Default()),
		chanlist.WithOnActiveChange(func(id string) {
			slog.Debug("active channel changed", "channel", id)
		}),
	)
	list := chanlist.New(b, opts...)
	a.list = list

	a.chatView = chat.New(a.tview, a.Config)
	a.chatView.SetOnSelect(func(id string) { a.selectChannel(list, id) })
	a.chatView.SetOnLoadMore(func() { go a.loadMore(ctx, list) })
	a.chatView.SetOnReload(func() { go a.reload(ctx, list) })
	a.chatView.StatusBar.SetConnectionStatus(a.identity)
	a.stopObserving = list.Observe(func(chanlist.Change) { a.scheduleRedraw(list) })
	if a.Config.UI.Notifications {
		a.stopNotifying = notifications.New().Watch(b, a.selfID)
	}

	a.tview.SetRoot(a.chatView, true)
	a.tview.SetFocus(a.chatView.Channels)

	go func() {
		if err := b.RunSocketMode(ctx); err != nil && ctx.Err() == nil {
			slog.Error("socket mode stopped", "error", err)
			a.tview.QueueUpdateDraw(func() {
				a.chatView.StatusBar.SetConnectionStatus(a.identity + " - disconnected")
			})
		}
	}()
	go func() {
		if err := list.Start(ctx); err != nil {
			slog.Warn("initial channel query failed", "error", err)
		}
	}()
}

// scheduleRedraw queues one redraw for any number of changes that arrive
// before it runs.
func (a *App) scheduleRedraw(list *chanlist.List) {
	if !a.redrawPending.CompareAndSwap(false, true) {
		return
	}
	a.tview.QueueUpdateDraw(func() {
		a.redrawPending.Store(false)
		if a.list != list {
			return
		}
		a.chatView.Render(list.State())
	})
}

func (a *App) selectChannel(list *chanlist.List, id string) {
	if err := list.SelectActiveChannel(id); err != nil {
		slog.Warn("failed to select channel", "channel", id, "error", err)
	}
}

func (a *App) loadMore(ctx context.Context, list *chanlist.List) {
	if err := list.LoadNextPage(ctx); err != nil {
		slog.Warn("failed to load next page", "error", err)
	}
}

func (a *App) reload(ctx context.Context, list *chanlist.List) {
	if err := list.Reload(ctx); err != nil {
		slog.Warn("failed to reload channels", "error", err)
	}
}
