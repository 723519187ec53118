package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestChannelFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.twitch.tv/forsen", "forsen", true},
		{"https://www.twitch.tv/Forsen?referrer=raid", "forsen", true},
		{"https://twitch.tv/some_channel/videos", "some_channel", true},
		{"https://www.twitch.tv/", "", false},
		{"https://example.com/forsen", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ChannelFromURL(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ChannelFromURL(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNotifyNormalizesKinds(t *testing.T) {
	h := NewHub()
	for _, k := range []Kind{PushState, ReplaceState, PopState} {
		if err := h.Notify(k, "https://www.twitch.tv/"+string(k)); err != nil {
			t.Fatalf("Notify(%s) error: %v", k, err)
		}
	}
	for _, k := range []Kind{PushState, ReplaceState, PopState} {
		if got := <-h.C(); got != "https://www.twitch.tv/"+string(k) {
			t.Errorf("got %q for kind %s", got, k)
		}
	}
}

func TestNotifyRejectsUnknownKind(t *testing.T) {
	h := NewHub()
	if err := h.Notify("hashchange", "https://www.twitch.tv/a"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Notify() error = %v, want ErrUnknownKind", err)
	}
}

func TestNotifyDropsOldestWhenFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < hubBuffer+3; i++ {
		_ = h.Notify(PushState, string(rune('a'+i)))
	}
	var last string
	for i := 0; i < hubBuffer; i++ {
		last = <-h.C()
	}
	if want := string(rune('a' + hubBuffer + 2)); last != want {
		t.Errorf("last pending url = %q, want %q", last, want)
	}
}

func TestPollNotifiesOnChange(t *testing.T) {
	h := NewHub()
	var mu sync.Mutex
	urls := []string{"https://www.twitch.tv/a", "https://www.twitch.tv/a", "https://www.twitch.tv/b"}
	calls := 0
	source := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if calls >= len(urls) {
			return urls[len(urls)-1], nil
		}
		u := urls[calls]
		calls++
		if calls == 2 {
			return "", errors.New("transient")
		}
		return u, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Poll(ctx, 5*time.Millisecond, source)

	select {
	case got := <-h.C():
		if got != "https://www.twitch.tv/b" {
			t.Errorf("poll notified %q, want b", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll notification")
	}
	select {
	case got := <-h.C():
		t.Errorf("unexpected extra notification %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
