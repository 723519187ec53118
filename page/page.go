// Package page hosts the chat page the overlay draws on: an HTML document
// whose transcript container (#live-page-chat [role=log]) receives mirrored
// chat lines and moderation annotations. The container keeps a bounded
// scrollback, dropping the oldest lines first, and every mutation is
// published to subscribers so live viewers can follow along.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoChatLog is returned when the transcript container is missing from the document.
var ErrNoChatLog = errors.New("page: chat log container not found")

const (
	// ChatRootID is the id of the element wrapping the transcript.
	ChatRootID = "live-page-chat"
	// ChatLogRole is the role attribute identifying the transcript container.
	ChatLogRole = "log"
	// IDAttr carries the per-node identifier used in change notifications.
	IDAttr = "data-id"
	// DefaultScrollback is how many children the transcript keeps.
	DefaultScrollback = 150
	// subscriberBuffer bounds how far a slow subscriber may lag before dropping changes.
	subscriberBuffer = 64
)

// Op names a transcript mutation.
type Op string

const (
	OpAppend Op = "append"
	OpRemove Op = "remove"
	OpReset  Op = "reset"
)

// Change describes one transcript mutation.
type Change struct {
	Op   Op     `json:"op"`
	ID   string `json:"id,omitempty"`
	HTML string `json:"html,omitempty"`
}

// Page is the chat page document. It is safe for concurrent use.
type Page struct {
	mu         sync.RWMutex
	doc        *html.Node
	scrollback int
	subs       map[chan Change]struct{}
}

const shell = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title></title>
<style>
body { font-family: sans-serif; background: #18181b; color: #efeff1; }
#live-page-chat [role=log] > div { padding: 4px 10px; }
.chat-author__display-name { font-weight: bold; }
</style>
</head>
<body>
<div id="live-page-chat"><div role="log"></div></div>
<script>
const chatLog = document.querySelector("#live-page-chat [role=log]");
const events = new EventSource("events");
events.onmessage = (e) => {
  const c = JSON.parse(e.data);
  if (c.op === "append") {
    chatLog.insertAdjacentHTML("beforeend", c.html);
    window.scrollTo(0, document.body.scrollHeight);
  } else if (c.op === "remove") {
    chatLog.querySelector('[data-id="' + c.id + '"]')?.remove();
  } else if (c.op === "reset") {
    chatLog.replaceChildren();
  }
};
</script>
</body>
</html>`

// New builds an empty chat page. A non-positive scrollback uses DefaultScrollback.
func New(title string, scrollback int) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(shell))
	if err != nil {
		return nil, fmt.Errorf("parse page shell: %w", err)
	}
	if t := find(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Title }); t != nil {
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	}
	if scrollback <= 0 {
		scrollback = DefaultScrollback
	}
	return &Page{doc: doc, scrollback: scrollback, subs: make(map[chan Change]struct{})}, nil
}

// SetTitle replaces the document title, e.g. after a room change.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := find(p.doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Title })
	if t == nil {
		return
	}
	for c := t.FirstChild; c != nil; c = t.FirstChild {
		t.RemoveChild(c)
	}
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

// chatLog resolves the "#live-page-chat [role=log]" selector. Callers hold mu.
func (p *Page) chatLog() (*html.Node, error) {
	root := find(p.doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == ChatRootID
	})
	if root == nil {
		return nil, ErrNoChatLog
	}
	var log *html.Node
	for c := root.FirstChild; c != nil && log == nil; c = c.NextSibling {
		log = find(c, func(n *html.Node) bool {
			return n.Type == html.ElementNode && Attr(n, "role") == ChatLogRole
		})
	}
	if log == nil {
		return nil, ErrNoChatLog
	}
	return log, nil
}

// Append adds n as the last child of the transcript, then trims the scrollback.
func (p *Page) Append(n *html.Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	log, err := p.chatLog()
	if err != nil {
		return err
	}
	id := Attr(n, IDAttr)
	if id == "" {
		id = uuid.NewString()
		n.Attr = append(n.Attr, html.Attribute{Key: IDAttr, Val: id})
	}
	log.AppendChild(n)
	p.publish(Change{Op: OpAppend, ID: id, HTML: renderNode(n)})
	for countChildren(log) > p.scrollback {
		p.remove(log, log.FirstChild)
	}
	return nil
}

// AppendChatLine mirrors an ordinary chat message into the transcript.
// Both user and text are inserted as text nodes.
func (p *Page) AppendChatLine(user, text string) error {
	line := Element(atom.Div, html.Attribute{Key: "class", Val: "chat-line__message"})
	name := Element(atom.Span, html.Attribute{Key: "class", Val: "chat-author__display-name"})
	name.AppendChild(Text(user))
	body := Element(atom.Span, html.Attribute{Key: "class", Val: "text-fragment"})
	body.AppendChild(Text(text))
	line.AppendChild(name)
	line.AppendChild(Text(": "))
	line.AppendChild(body)
	return p.Append(line)
}

// RemoveFirstIf removes the first child of the transcript when match reports
// true for it. It returns whether a node was removed.
func (p *Page) RemoveFirstIf(match func(*html.Node) bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	log, err := p.chatLog()
	if err != nil {
		return false, err
	}
	first := log.FirstChild
	if first == nil || !match(first) {
		return false, nil
	}
	p.remove(log, first)
	return true, nil
}

// Reset empties the transcript.
func (p *Page) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	log, err := p.chatLog()
	if err != nil {
		return err
	}
	for c := log.FirstChild; c != nil; c = log.FirstChild {
		log.RemoveChild(c)
	}
	p.publish(Change{Op: OpReset})
	return nil
}

func (p *Page) remove(log, n *html.Node) {
	log.RemoveChild(n)
	p.publish(Change{Op: OpRemove, ID: Attr(n, IDAttr)})
}

// Children returns the transcript's children in document order.
// The returned nodes must be treated as read-only.
func (p *Page) Children() ([]*html.Node, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	log, err := p.chatLog()
	if err != nil {
		return nil, err
	}
	var out []*html.Node
	for c := log.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out, nil
}

// Render writes the whole document.
func (p *Page) Render(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return html.Render(w, p.doc)
}

// Subscribe registers for transcript changes. The returned func unsubscribes
// and closes the channel.
func (p *Page) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
}

// publish fans c out without blocking. Callers hold mu.
func (p *Page) publish(c Change) {
	for ch := range p.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func countChildren(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}
