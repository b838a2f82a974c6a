package login

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/m96-chan/chanlist/internal/keyring"
	slackclient "github.com/m96-chan/chanlist/internal/slack"
)

// connectTimeout bounds the auth.test round trip made on submit.
const connectTimeout = 15 * time.Second

// DoneFn receives the authenticated client.
type DoneFn func(client *slackclient.Client)

// ConnectFn validates a token pair and returns a connected client.
type ConnectFn func(ctx context.Context, userToken, appToken string) (*slackclient.Client, error)

// Form prompts for the user and app tokens the channel list runs on.
// Failures are shown on a line under the fields.
type Form struct {
	*tview.Flex
	app       *tview.Application
	connect   ConnectFn
	done      DoneFn
	form      *tview.Form
	userField *tview.InputField
	appField  *tview.InputField
	message   *tview.TextView
}

// New creates a login form. Tokens that authenticate are stored in the
// system keyring before done is called.
func New(app *tview.Application, connect ConnectFn, done DoneFn) *Form {
	f := &Form{
		app:     app,
		connect: connect,
		done:    done,
	}

	f.userField = tview.NewInputField().
		SetLabel("User token (xoxp-)").
		SetMaskCharacter('*')
	f.appField = tview.NewInputField().
		SetLabel("App token (xapp-)").
		SetMaskCharacter('*')
	f.message = tview.NewTextView().SetDynamicColors(true)

	f.form = tview.NewForm().
		AddFormItem(f.userField).
		AddFormItem(f.appField).
		AddButton("Login", f.submit).
		AddButton("Quit", app.Stop)

	f.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(f.form, 0, 1, true).
		AddItem(f.message, 2, 0, false)
	f.SetBorder(true).
		SetTitle(" chanlist login ").
		SetTitleAlign(tview.AlignCenter)

	return f
}

// Message returns the text of the status line.
func (f *Form) Message() string { return f.message.GetText(true) }

func (f *Form) submit() {
	user := strings.TrimSpace(f.userField.GetText())
	app := strings.TrimSpace(f.appField.GetText())

	if msg := checkTokens(user, app); msg != "" {
		f.showError(msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := f.connect(ctx, user, app)
	if err != nil {
		slog.Warn("login failed", "error", err)
		f.showError("Authentication failed: " + err.Error())
		return
	}

	if err := keyring.SetUserToken(user); err != nil {
		slog.Warn("failed to store user token in keyring", "error", err)
	}
	if err := keyring.SetAppToken(app); err != nil {
		slog.Warn("failed to store app token in keyring", "error", err)
	}

	f.message.Clear()
	f.done(client)
}

func (f *Form) showError(msg string) {
	f.message.SetText("[red]" + tview.Escape(msg) + "[-]")
}

// checkTokens returns a message for a token pair that cannot work, so no
// network call is made for it. An acceptable pair yields "".
func checkTokens(user, app string) string {
	switch {
	case user == "" || app == "":
		return "Both tokens are required."
	case !strings.HasPrefix(user, "xoxp-") && !strings.HasPrefix(user, "xoxb-"):
		return "The user token must start with xoxp- or xoxb-."
	case !strings.HasPrefix(app, "xapp-"):
		return "The app token must start with xapp-."
	}
	return ""
}
