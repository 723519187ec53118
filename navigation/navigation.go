// Package navigation turns page URL changes into a single stream of
// notifications. History pushes, replacements and back/forward moves all
// arrive through Notify; Poll is a fallback for hosts that cannot push.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Kind identifies the page mechanism that changed the URL.
type Kind string

const (
	PushState    Kind = "pushState"
	ReplaceState Kind = "replaceState"
	PopState     Kind = "popstate"
	// Poll marks URLs discovered by polling.
	Poll Kind = "poll"
)

// ErrUnknownKind is returned by Notify for an unrecognised Kind.
var ErrUnknownKind = errors.New("navigation: unknown kind")

// hubBuffer bounds pending notifications; older ones are dropped first.
const hubBuffer = 16

var channelPattern = regexp.MustCompile(`twitch\.tv/(\w+)`)

// ChannelFromURL extracts the lowercased channel name from a page URL like
// https://www.twitch.tv/somechannel?foo=bar.
func ChannelFromURL(u string) (string, bool) {
	m := channelPattern.FindStringSubmatch(u)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Hub fans navigation notifications into one channel. It is safe for concurrent use.
type Hub struct {
	ch chan string
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{ch: make(chan string, hubBuffer)}
}

// C returns the notification stream. The hub never closes it.
func (h *Hub) C() <-chan string {
	return h.ch
}

// Notify records that the page moved to url via kind.
// When the buffer is full the oldest pending URL is discarded, since only
// the latest location matters.
func (h *Hub) Notify(kind Kind, url string) error {
	switch kind {
	case PushState, ReplaceState, PopState, Poll:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	for {
		select {
		case h.ch <- url:
			slog.Debug("navigation", slog.String("kind", string(kind)), slog.String("url", url))
			return nil
		default:
		}
		select {
		case <-h.ch:
		default:
		}
	}
}

// Poll calls source every interval and notifies the hub whenever the URL it
// returns differs from the previous one. It returns when ctx is done.
func (h *Hub) Poll(ctx context.Context, interval time.Duration, source func() (string, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := ""
	for {
		url, err := source()
		switch {
		case err != nil:
			slog.Debug("navigation poll failed", slog.Any("err", err))
		case url != "" && url != last:
			if last != "" {
				_ = h.Notify(Poll, url)
			}
			last = url
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
