package chat

import (
	"log/slog"
	"strconv"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/twitch-timeouts/telemetry"
)

// rule pairs a matcher with a handler. apply reports whether the line matched.
type rule struct {
	name  string
	apply func(twitch.Message) bool
}

// on builds a rule for messages of type T. match extracts the fields the
// handler needs; handle runs only when match succeeds.
func on[T twitch.Message, F any](name string, match func(T) (F, bool), handle func(F)) rule {
	return rule{name: name, apply: func(m twitch.Message) bool {
		msg, ok := m.(T)
		if !ok {
			return false
		}
		fields, ok := match(msg)
		if !ok {
			return false
		}
		handle(fields)
		return true
	}}
}

// rules returns the classification table in evaluation order.
func (r *Reader) rules() []rule {
	return []rule{
		on("privmsg", r.matchChatMessage, r.remember),
		on("clearchat", r.matchClearChat, r.announce),
		on("clearmsg", r.matchClearMessage, r.announce),
	}
}

type chatMessage struct {
	name string
	text string
}

// matchChatMessage accepts PRIVMSG lines for the joined channel.
// The display name is preferred, falling back to the login.
func (r *Reader) matchChatMessage(m *twitch.PrivateMessage) (chatMessage, bool) {
	if m.Channel != r.channel {
		return chatMessage{}, false
	}
	name := displayName(m)
	if name == "" {
		return chatMessage{}, false
	}
	return chatMessage{name: name, text: m.Message}, true
}

// matchClearChat accepts CLEARCHAT lines naming a target user. A missing
// ban-duration tag means a permanent ban. Whole-chat clears have no target
// and do not match.
func (r *Reader) matchClearChat(m *twitch.ClearChatMessage) (Event, bool) {
	if m.Channel != r.channel || m.TargetUsername == "" {
		return nil, false
	}
	user := m.TargetUsername
	last := r.lastMessage[user]
	raw, timed := m.Tags["ban-duration"]
	if !timed {
		return PermanentBan{User: user, LastMessage: last}, true
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		slog.Debug("ignoring clearchat with bad ban-duration", slog.String("value", raw), slog.String("component", "chat"))
		return nil, false
	}
	return Timeout{User: user, DurationSeconds: secs, LastMessage: last}, true
}

// matchClearMessage accepts CLEARMSG lines with a login tag.
func (r *Reader) matchClearMessage(m *twitch.ClearMessage) (Event, bool) {
	if m.Channel != r.channel || m.Login == "" {
		return nil, false
	}
	return MessageCleared{User: m.Login, Message: m.Message}, true
}

func (r *Reader) remember(m chatMessage) {
	r.lastMessage[strings.ToLower(m.name)] = m.text
	telemetry.SetCachedUsers(len(r.lastMessage))
}

func (r *Reader) announce(ev Event) {
	telemetry.ModerationEvents.WithLabelValues(ev.Kind()).Inc()
	slog.Info("moderation event",
		slog.String("kind", ev.Kind()),
		slog.String("user", ev.Target()),
		slog.String("channel", r.channel),
		slog.String("component", "chat"))
	if err := r.presenter.Render(ev); err != nil {
		slog.Warn("render moderation event", slog.Any("err", err), slog.String("component", "chat"))
	}
}
