package slack

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/m96-chan/chanlist/internal/chanlist"
)

// translator turns Slack events into channel list events.
//
// Note: Slack never truncates history on behalf of the list, so
// channel.truncated is never produced here.
type translator struct {
	selfID  string
	watched func(id string) bool
	unwatch func(id string)
	fetch   func(ctx context.Context, id string) (*chanlist.Channel, error)
	publish func(chanlist.RawEvent)
	log     *slog.Logger

	// disconnected is set once the socket drops so the next connect is
	// reported as a recovery rather than the initial connection.
	disconnected atomic.Bool
}

// RunSocketMode connects over Socket Mode and publishes translated events
// to subscribers until ctx is cancelled or a fatal error occurs.
func (c *Client) RunSocketMode(ctx context.Context) error {
	smClient := socketmode.New(c.api)
	smHandler := socketmode.NewSocketmodeHandler(smClient)

	tr := c.newTranslator()
	registerEventHandlers(ctx, smHandler, tr)
	registerLifecycleHandlers(smHandler, tr)

	return smHandler.RunEventLoopContext(ctx)
}

func (c *Client) newTranslator() *translator {
	return &translator{
		selfID:  c.UserID,
		watched: c.Watched,
		unwatch: c.unwatch,
		fetch:   c.GetChannel,
		publish: c.Publish,
		log:     c.log,
	}
}

// registerEventHandlers wires Events API event types to the translator.
func registerEventHandlers(ctx context.Context, smHandler *socketmode.SocketmodeHandler, tr *translator) {
	registerTypedHandler(smHandler, slackevents.Message, func(ev *slackevents.MessageEvent) { tr.onMessage(ctx, ev) })

	registerTypedHandler(smHandler, slackevents.MemberJoinedChannel, func(ev *slackevents.MemberJoinedChannelEvent) {
		tr.onMemberJoined(ctx, ev)
	})
	registerTypedHandler(smHandler, slackevents.MemberLeftChannel, tr.onMemberLeft)
	registerTypedHandler(smHandler, slackevents.ChannelLeft, func(ev *slackevents.ChannelLeftEvent) {
		tr.removed(chanlist.KindRemovedFromChannel, ev.Channel)
	})
	registerTypedHandler(smHandler, slackevents.GroupLeft, func(ev *slackevents.GroupLeftEvent) {
		tr.removed(chanlist.KindRemovedFromChannel, ev.Channel)
	})

	registerTypedHandler(smHandler, slackevents.ChannelDeleted, func(ev *slackevents.ChannelDeletedEvent) {
		tr.removed(chanlist.KindChannelDeleted, ev.Channel)
	})
	registerTypedHandler(smHandler, slackevents.GroupDeleted, func(ev *slackevents.GroupDeletedEvent) {
		tr.removed(chanlist.KindChannelDeleted, ev.Channel)
	})
	registerTypedHandler(smHandler, slackevents.ChannelArchive, func(ev *slackevents.ChannelArchiveEvent) {
		tr.removed(chanlist.KindChannelHidden, ev.Channel)
	})
	registerTypedHandler(smHandler, slackevents.GroupArchive, func(ev *slackevents.GroupArchiveEvent) {
		tr.removed(chanlist.KindChannelHidden, ev.Channel)
	})
	registerTypedHandler(smHandler, slackevents.ChannelUnarchive, func(ev *slackevents.ChannelUnarchiveEvent) {
		tr.fetched(ctx, chanlist.KindChannelVisible, ev.Channel, nil)
	})
	registerTypedHandler(smHandler, slackevents.GroupUnarchive, func(ev *slackevents.GroupUnarchiveEvent) {
		tr.fetched(ctx, chanlist.KindChannelVisible, ev.Channel, nil)
	})
	registerTypedHandler(smHandler, slackevents.ChannelRename, func(ev *slackevents.ChannelRenameEvent) {
		tr.renamed(ev.Channel.ID, ev.Channel.Name)
	})
	registerTypedHandler(smHandler, slackevents.GroupRename, func(ev *slackevents.GroupRenameEvent) {
		tr.renamed(ev.Channel.ID, ev.Channel.Name)
	})

	registerTypedHandler(smHandler, slackevents.UserStatusChanged, tr.onUserStatusChanged)
}

// registerTypedHandler is a generic helper that registers a HandleEvents callback
// which extracts the inner event, type-asserts it, and calls the provided callback.
func registerTypedHandler[T any](smHandler *socketmode.SocketmodeHandler, eventType slackevents.EventsAPIType, callback func(*T)) {
	smHandler.HandleEvents(eventType, func(evt *socketmode.Event, client *socketmode.Client) {
		client.Ack(*evt.Request)

		apiEvt, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		inner, ok := apiEvt.InnerEvent.Data.(*T)
		if !ok {
			slog.Warn("unexpected inner event type",
				"event_type", eventType,
				"data_type", fmt.Sprintf("%T", apiEvt.InnerEvent.Data))
			return
		}
		if callback != nil {
			callback(inner)
		}
	})
}

// registerLifecycleHandlers tracks socket state so reconnects surface as
// connection.recovered.
func registerLifecycleHandlers(smHandler *socketmode.SocketmodeHandler, tr *translator) {
	smHandler.Handle(socketmode.EventTypeConnected, func(*socketmode.Event, *socketmode.Client) {
		slog.Info("socket mode connected")
		tr.onConnected()
	})

	smHandler.Handle(socketmode.EventTypeDisconnect, func(*socketmode.Event, *socketmode.Client) {
		slog.Warn("socket mode disconnected")
		tr.onDisconnected()
	})

	smHandler.Handle(socketmode.EventTypeConnectionError, func(evt *socketmode.Event, _ *socketmode.Client) {
		slog.Warn("socket mode connection error", "data", evt.Data)
		tr.onDisconnected()
	})

	smHandler.Handle(socketmode.EventTypeInvalidAuth, func(*socketmode.Event, *socketmode.Client) {
		slog.Error("socket mode invalid auth")
	})
}

// onMessage maps a top-level message. Messages in watched channels update
// the list directly; anything else needs the channel summary first.
func (tr *translator) onMessage(ctx context.Context, msg *slackevents.MessageEvent) {
	switch msg.SubType {
	case "", "bot_message", "file_share", "me_message", "thread_broadcast":
	case "channel_topic", "channel_purpose", "channel_name", "group_topic", "group_purpose", "group_name":
		tr.fetched(ctx, chanlist.KindChannelUpdated, msg.Channel, nil)
		return
	default:
		return
	}
	if msg.ThreadTimeStamp != "" && msg.ThreadTimeStamp != msg.TimeStamp && msg.SubType != "thread_broadcast" {
		return
	}

	preview := &chanlist.MessagePreview{
		ID:        msg.TimeStamp,
		UserID:    msg.User,
		Text:      msg.Text,
		CreatedAt: parseTS(msg.TimeStamp),
	}
	if tr.watched(msg.Channel) {
		tr.publish(chanlist.RawEvent{
			Type:        chanlist.KindMessageNew.String(),
			ChannelID:   msg.Channel,
			ChannelType: messageChannelType(msg.ChannelType),
			Message:     preview,
		})
		return
	}
	tr.fetched(ctx, chanlist.KindNotificationMessageNew, msg.Channel, preview)
}

func (tr *translator) onMemberJoined(ctx context.Context, ev *slackevents.MemberJoinedChannelEvent) {
	if ev.User != tr.selfID {
		return
	}
	tr.fetched(ctx, chanlist.KindAddedToChannel, ev.Channel, nil)
}

func (tr *translator) onMemberLeft(ev *slackevents.MemberLeftChannelEvent) {
	if ev.User != tr.selfID {
		return
	}
	tr.removed(chanlist.KindRemovedFromChannel, ev.Channel)
}

func (tr *translator) onUserStatusChanged(ev *slackevents.UserStatusChangedEvent) {
	tr.publish(chanlist.RawEvent{
		Type: chanlist.KindUserPresenceChanged.String(),
		User: toUser(ev.User),
	})
}

func (tr *translator) onConnected() {
	if tr.disconnected.CompareAndSwap(true, false) {
		tr.publish(chanlist.RawEvent{Type: chanlist.KindConnectionRecovered.String()})
	}
}

func (tr *translator) onDisconnected() {
	tr.disconnected.Store(true)
}

func (tr *translator) removed(kind chanlist.Kind, channelID string) {
	tr.unwatch(channelID)
	tr.publish(chanlist.RawEvent{Type: kind.String(), ChannelID: channelID})
}

func (tr *translator) renamed(channelID, name string) {
	tr.publish(chanlist.RawEvent{
		Type:      chanlist.KindChannelUpdated.String(),
		ChannelID: channelID,
		Channel:   &chanlist.Channel{ID: channelID, Name: name},
	})
}

// fetched publishes kind with a freshly fetched summary of channelID.
// Fetch failures drop the event.
func (tr *translator) fetched(ctx context.Context, kind chanlist.Kind, channelID string, msg *chanlist.MessagePreview) {
	ch, err := tr.fetch(ctx, channelID)
	if err != nil {
		tr.log.Warn("dropping event, channel lookup failed", "kind", kind, "channel", channelID, "error", err)
		return
	}
	tr.publish(chanlist.RawEvent{
		Type:        kind.String(),
		ChannelID:   channelID,
		ChannelType: ch.Type,
		Channel:     ch,
		Message:     msg,
	})
}

func messageChannelType(t string) string {
	switch t {
	case "channel":
		return chanlist.TypePublic
	case "group":
		return chanlist.TypePrivate
	case "im":
		return chanlist.TypeDM
	case "mpim":
		return chanlist.TypeGroupDM
	}
	return t
}

func toUser(u slack.User) *chanlist.User {
	return &chanlist.User{
		ID:          u.ID,
		Name:        displayName(u),
		Online:      u.Presence == "active",
		HasPresence: u.Presence != "",
		Status:      u.Profile.StatusText,
	}
}
