package notifications

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/m96-chan/chanlist/internal/chanlist"
	"github.com/m96-chan/chanlist/internal/consts"
)

// minInterval is the minimum time between notifications to prevent spam.
const minInterval = 3 * time.Second

// Subscriber is the event source a Notifier listens to.
type Subscriber interface {
	Subscribe(eventType string, fn func(chanlist.RawEvent)) chanlist.Token
	Unsubscribe(tok chanlist.Token)
}

// Notifier sends desktop notifications with rate limiting.
type Notifier struct {
	limiter *rate.Limiter
	send    func(title, body string) error
}

// New creates a new Notifier that uses the platform's notification command.
func New() *Notifier {
	return &Notifier{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		send:    sendPlatform,
	}
}

// Send dispatches a desktop notification in the background. It returns
// false when the call was dropped by the rate limit.
func (n *Notifier) Send(title, body string) bool {
	if !n.limiter.Allow() {
		return false
	}
	go func() {
		if err := n.send(title, body); err != nil {
			slog.Debug("notification failed", "error", err)
		}
	}()
	return true
}

// Watch subscribes to the events worth a notification and returns a
// function that removes the subscriptions. selfUserID is used to detect
// mentions in messages of listed channels.
func (n *Notifier) Watch(sub Subscriber, selfUserID string) (stop func()) {
	kinds := []chanlist.Kind{
		chanlist.KindMessageNew,
		chanlist.KindNotificationMessageNew,
		chanlist.KindAddedToChannel,
	}
	toks := make([]chanlist.Token, 0, len(kinds))
	for _, k := range kinds {
		toks = append(toks, sub.Subscribe(k.String(), func(raw chanlist.RawEvent) {
			if title, body, ok := describe(raw, selfUserID); ok {
				n.Send(title, body)
			}
		}))
	}
	return func() {
		for _, tok := range toks {
			sub.Unsubscribe(tok)
		}
	}
}

// describe decides whether raw deserves a notification and renders it.
// Messages in listed channels only notify for DMs and mentions; a message
// in a channel outside the list always does.
func describe(raw chanlist.RawEvent, selfUserID string) (title, body string, ok bool) {
	name := raw.ChannelID
	if raw.Channel != nil && raw.Channel.Name != "" {
		name = raw.Channel.Name
	}
	text := ""
	if raw.Message != nil {
		text = raw.Message.Text
	}

	switch raw.Type {
	case chanlist.KindAddedToChannel.String():
		return consts.Name, "You were added to #" + name, true
	case chanlist.KindNotificationMessageNew.String():
		return "#" + name, StripMrkdwn(text), raw.Message != nil
	case chanlist.KindMessageNew.String():
		if raw.Message == nil || raw.Message.UserID == selfUserID {
			return "", "", false
		}
		switch DetectMention(text, selfUserID, raw.ChannelType == chanlist.TypeDM) {
		case MentionNone:
			return "", "", false
		case MentionDM:
			return "Direct message", StripMrkdwn(text), true
		}
		return "#" + name, StripMrkdwn(text), true
	}
	return "", "", false
}

// sendPlatform dispatches a notification using OS-specific commands.
func sendPlatform(title, body string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", "--app-name="+consts.Name, title, body).Run()
	case "darwin":
		script := fmt.Sprintf(
			`display notification %q with title %q`, body, title)
		return exec.Command("osascript", "-e", script).Run()
	default:
		slog.Debug("notifications not supported on this platform", "os", runtime.GOOS)
		return nil
	}
}

// MentionType identifies what kind of notification trigger was detected.
type MentionType int

const (
	MentionNone MentionType = iota
	MentionDirect
	MentionDM
	MentionHere
	MentionChannel
	MentionEveryone
)

// DetectMention checks if a message should trigger a notification for the given user.
// Returns the most specific mention type found.
func DetectMention(text, selfUserID string, isDM bool) MentionType {
	if isDM {
		return MentionDM
	}

	// Direct @mention: <@USERID> or <@USERID|name>.
	if selfUserID != "" &&
		(strings.Contains(text, "<@"+selfUserID+">") || strings.Contains(text, "<@"+selfUserID+"|")) {
		return MentionDirect
	}

	switch {
	case strings.Contains(text, "<!everyone>"):
		return MentionEveryone
	case strings.Contains(text, "<!channel>"):
		return MentionChannel
	case strings.Contains(text, "<!here>"):
		return MentionHere
	}
	return MentionNone
}

// StripMrkdwn removes Slack mrkdwn formatting for a plain-text notification
// body, resolving mentions and links to their labels.
func StripMrkdwn(text string) string {
	text = strings.NewReplacer("```", "", "`", "", "*", "", "_", "", "~", "").Replace(text)
	text = resolveAngleBrackets(text)

	if r := []rune(text); len(r) > 200 {
		text = string(r[:200]) + "…"
	}
	return strings.TrimSpace(text)
}

// resolveAngleBrackets converts <...> tokens to readable text.
func resolveAngleBrackets(text string) string {
	var result strings.Builder
	for {
		start := strings.IndexByte(text, '<')
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start:], '>')
		if end < 0 {
			break
		}
		result.WriteString(text[:start])
		result.WriteString(resolveToken(text[start+1 : start+end]))
		text = text[start+end+1:]
	}
	result.WriteString(text)
	return result.String()
}

// resolveToken converts a single angle-bracket token to readable text.
func resolveToken(inner string) string {
	id, label, _ := strings.Cut(inner, "|")
	switch {
	case strings.HasPrefix(id, "@"), strings.HasPrefix(id, "#"):
		if label != "" {
			return id[:1] + label
		}
		return id
	case strings.HasPrefix(id, "!"):
		if label != "" {
			return label
		}
		return "@" + id[1:]
	}
	if label != "" {
		return label
	}
	return id
}
