package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/twitch-timeouts/navigation"
	"github.com/onnwee/twitch-timeouts/page"
)

const (
	heartbeatInterval = 15 * time.Second
	maxNavigateBody   = 4 << 10
)

// ReaderStatus is the part of the chat reader the HTTP layer reports on.
type ReaderStatus interface {
	Connected() bool
	Channel() string
}

// Navigator accepts page navigation notifications.
type Navigator interface {
	Notify(kind navigation.Kind, url string) error
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctx    context.Context
	page   *page.Page
	reader ReaderStatus
	nav    Navigator
}

// NewHandlers creates a new Handlers instance with the given dependencies.
// ctx ends open event streams on shutdown.
func NewHandlers(ctx context.Context, p *page.Page, reader ReaderStatus, nav Navigator) *Handlers {
	return &Handlers{ctx: ctx, page: p, reader: reader, nav: nav}
}

// HandlePage renders the chat page.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	if err := h.page.Render(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

// HandleEvents streams transcript changes using Server-Sent Events.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// Streams outlive the server-wide write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	changes, unsubscribe := h.page.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case c, ok := <-changes:
			if !ok {
				return
			}
			payload, err := json.Marshal(sanitizeChange(c))
			if err != nil {
				slog.Warn("failed to encode page change", slog.Any("err", err))
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				slog.Debug("event stream closed", slog.Any("err", err))
				return
			}
			flusher.Flush()
		}
	}
}

type navigateRequest struct {
	Kind navigation.Kind `json:"kind"`
	URL  string          `json:"url"`
}

// HandleNavigate accepts a URL change posted by an external client.
func (h *Handlers) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req navigateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxNavigateBody)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		req.Kind = navigation.PushState
	}
	if err := h.nav.Notify(req.Kind, req.URL); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, navigation.ErrUnknownKind) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// HandleStatus reports the joined channel and connection state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"channel":   h.reader.Channel(),
		"connected": h.reader.Connected(),
	})
}
