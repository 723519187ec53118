// Package testutil provides shared test doubles.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// MockRelay is an in-process chat relay. It accepts WebSocket connections,
// records every line a client sends and lets tests push frames back.
type MockRelay struct {
	*httptest.Server
	received chan string
	conns    chan *websocket.Conn
}

// NewMockRelay starts a relay that is closed when the test ends.
func NewMockRelay(t *testing.T) *MockRelay {
	t.Helper()
	m := &MockRelay{received: make(chan string, 64), conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		m.conns <- c
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			m.received <- string(data)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

// WSURL returns the ws:// address of the relay.
func (m *MockRelay) WSURL() string { return "ws" + strings.TrimPrefix(m.URL, "http") }

// Expect fails the test unless the next lines received are exactly want, in order.
func (m *MockRelay) Expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-m.received:
			if got != w {
				t.Fatalf("relay received %q, want %q", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}

// ExpectNone fails the test if any line arrives within wait.
func (m *MockRelay) ExpectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case got := <-m.received:
		t.Fatalf("relay received unexpected %q", got)
	case <-time.After(wait):
	}
}

// Conn waits for the next client connection.
func (m *MockRelay) Conn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-m.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client connection")
		return nil
	}
}

// Send writes lines to conn as a single CRLF-terminated frame.
func Send(t *testing.T, conn *websocket.Conn, lines ...string) {
	t.Helper()
	frame := strings.Join(lines, "\r\n") + "\r\n"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

// GuestHandshake is what an anonymous client with the given nick sends on connect.
func GuestHandshake(nick, channel string) []string {
	return []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS SCHMOOPIIE",
		"NICK " + nick,
		"USER " + nick + " 8 * :" + nick,
		"JOIN #" + channel,
	}
}
