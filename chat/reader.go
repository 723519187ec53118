package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/gorilla/websocket"

	"github.com/onnwee/twitch-timeouts/navigation"
	"github.com/onnwee/twitch-timeouts/telemetry"
)

const (
	// DefaultURL is the Twitch chat relay WebSocket endpoint.
	DefaultURL = "wss://irc-ws.chat.twitch.tv/"
	// GuestPassword is the password Twitch accepts for anonymous justinfan logins.
	GuestPassword = "SCHMOOPIIE"
	// Capabilities requested so lines carry tags and moderation commands.
	Capabilities = "twitch.tv/tags twitch.tv/commands"

	writeWait = 10 * time.Second
)

// Presenter renders moderation events onto the chat page.
type Presenter interface {
	Render(Event) error
	Prune() error
}

// Host is the chat page the reader mirrors chat into.
type Host interface {
	AppendChatLine(user, text string) error
	Reset() error
	SetTitle(title string)
}

// Dialer opens the relay connection. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config controls the reader. Zero values fall back to defaults.
type Config struct {
	URL    string
	Dialer Dialer
	// Navigation delivers page URLs; nil disables room changes.
	Navigation <-chan string
	// ReconnectAttempts > 0 retries a dropped connection that many times in total.
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	// Username overrides the random justinfan guest name.
	Username string
}

// Reader owns the relay connection and all per-session state. Apart from
// Connected and Channel, its methods must be called from the goroutine running Run.
type Reader struct {
	cfg       Config
	presenter Presenter
	host      Host
	username  string

	conn        *websocket.Conn
	channel     string
	lastMessage map[string]string
	table       []rule

	connected     atomic.Bool
	activeChannel atomic.Value // string
}

// NewReader returns a reader that renders through p and mirrors chat into h.
func NewReader(cfg Config, p Presenter, h Host) *Reader {
	telemetry.Init()
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	username := cfg.Username
	if username == "" {
		username = fmt.Sprintf("justinfan%d", rand.IntN(100000))
	}
	r := &Reader{
		cfg:         cfg,
		presenter:   p,
		host:        h,
		username:    username,
		lastMessage: make(map[string]string),
	}
	r.table = r.rules()
	r.activeChannel.Store("")
	return r
}

// Connected reports whether the relay connection is open and logged in.
func (r *Reader) Connected() bool { return r.connected.Load() }

// Channel returns the channel currently joined, or "".
func (r *Reader) Channel() string { return r.activeChannel.Load().(string) }

// Run joins the channel found in pageURL and processes chat until ctx is done.
// Without a recognizable channel it returns nil immediately and never connects.
// It returns an error when the connection fails and no reconnect attempts remain.
func (r *Reader) Run(ctx context.Context, pageURL string) error {
	channel, ok := navigation.ChannelFromURL(pageURL)
	if !ok {
		slog.Info("no channel in page url; chat reader idle", slog.String("url", pageURL), slog.String("component", "chat"))
		return nil
	}
	r.setChannel(channel)

	for attempt := 0; ; attempt++ {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if attempt >= r.cfg.ReconnectAttempts {
			return err
		}
		telemetry.ChatReconnects.Inc()
		slog.Warn("chat connection lost; reconnecting",
			slog.Any("err", err),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", r.cfg.ReconnectAttempts),
			slog.Duration("delay", r.cfg.ReconnectDelay),
			slog.String("component", "chat"))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.cfg.ReconnectDelay):
		}
	}
}

// session runs one connection from dial to close.
func (r *Reader) session(ctx context.Context) error {
	conn, _, err := r.cfg.Dialer.DialContext(ctx, r.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial chat relay: %w", err)
	}
	r.conn = conn
	defer func() {
		r.connected.Store(false)
		telemetry.SetConnected(false)
		if err := conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			slog.Debug("close chat relay", slog.Any("err", err))
		}
	}()

	if err := r.login(); err != nil {
		return err
	}
	r.connected.Store(true)
	telemetry.SetConnected(true)
	slog.Info("chat reader joined", slog.String("channel", r.channel), slog.String("nick", r.username), slog.String("component", "chat"))

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-done:
				return
			}
		}
	}()

	nav := r.cfg.Navigation
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case err := <-readErr:
			return fmt.Errorf("read chat relay: %w", err)
		case data := <-frames:
			for _, line := range splitLines(data) {
				r.HandleLine(line)
			}
		case u, ok := <-nav:
			if !ok {
				nav = nil
				continue
			}
			r.Navigate(u)
		}
	}
}

// login sends the guest handshake and joins the current channel.
func (r *Reader) login() error {
	for _, line := range []string{
		"CAP REQ :" + Capabilities,
		"PASS " + GuestPassword,
		"NICK " + r.username,
		fmt.Sprintf("USER %s 8 * :%s", r.username, r.username),
		"JOIN #" + r.channel,
	} {
		if err := r.send(line); err != nil {
			return fmt.Errorf("chat login: %w", err)
		}
	}
	return nil
}

func (r *Reader) send(line string) error {
	if r.conn == nil {
		return errors.New("chat relay not connected")
	}
	if err := r.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return r.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// HandleLine processes one inbound IRC line: keep-alive, pruning, host
// mirroring and then every rule in order. Unparseable or irrelevant lines
// are ignored.
func (r *Reader) HandleLine(line string) {
	telemetry.ChatLines.Inc()
	if strings.HasPrefix(line, "PING") {
		telemetry.ChatPings.Inc()
		if err := r.send("PONG" + strings.TrimPrefix(line, "PING")); err != nil {
			slog.Warn("send pong", slog.Any("err", err), slog.String("component", "chat"))
		}
		return
	}

	if err := r.presenter.Prune(); err != nil {
		slog.Warn("prune annotation", slog.Any("err", err), slog.String("component", "chat"))
	}

	msg, ok := parseLine(line)
	if !ok {
		return
	}
	if pm, ok := msg.(*twitch.PrivateMessage); ok && pm.Channel == r.channel {
		if err := r.host.AppendChatLine(displayName(pm), pm.Message); err != nil {
			slog.Warn("mirror chat line", slog.Any("err", err), slog.String("component", "chat"))
		}
	}

	matched := false
	for _, rl := range r.table {
		if rl.apply(msg) {
			matched = true
			telemetry.RuleMatches.WithLabelValues(rl.name).Inc()
		}
	}
	if !matched {
		slog.Debug("unmatched line", slog.String("line", line), slog.String("component", "chat"))
	}
}

// Navigate follows the page to url. A different channel is parted and the
// new one joined, in that order; anything else is a no-op.
func (r *Reader) Navigate(url string) {
	channel, ok := navigation.ChannelFromURL(url)
	if !ok || channel == r.channel {
		telemetry.Navigations.WithLabelValues("ignored").Inc()
		return
	}
	old := r.channel
	if err := r.send("PART #" + old); err != nil {
		slog.Warn("part channel", slog.String("channel", old), slog.Any("err", err), slog.String("component", "chat"))
	}
	if err := r.send("JOIN #" + channel); err != nil {
		slog.Warn("join channel", slog.String("channel", channel), slog.Any("err", err), slog.String("component", "chat"))
	}
	r.setChannel(channel)
	if err := r.host.Reset(); err != nil {
		slog.Warn("reset chat page", slog.Any("err", err), slog.String("component", "chat"))
	}
	telemetry.Navigations.WithLabelValues("joined").Inc()
	slog.Info("chat reader switched channel", slog.String("from", old), slog.String("to", channel), slog.String("component", "chat"))
}

func (r *Reader) setChannel(channel string) {
	r.channel = channel
	r.activeChannel.Store(channel)
	r.host.SetTitle("#" + channel)
}

// parseLine parses one IRC line. The parser indexes params without bounds
// checks, so truncated lines panic inside it; those are reported as not ok.
func parseLine(line string) (msg twitch.Message, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.ChatMalformed.Inc()
			slog.Debug("malformed line", slog.String("line", line), slog.Any("panic", rec), slog.String("component", "chat"))
			msg, ok = nil, false
		}
	}()
	return twitch.ParseMessage(line), true
}

func displayName(m *twitch.PrivateMessage) string {
	if m.User.DisplayName != "" {
		return m.User.DisplayName
	}
	return m.User.Name
}

// splitLines breaks a relay frame into IRC lines. One frame may carry several.
func splitLines(frame []byte) []string {
	var lines []string
	for _, l := range strings.Split(string(frame), "\n") {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
