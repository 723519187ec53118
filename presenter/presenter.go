// Package presenter draws moderation events onto the chat page as marked
// annotation lines and removes a stale annotation once it reaches the top of
// the transcript.
package presenter

import (
	"fmt"
	"log/slog"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/onnwee/twitch-timeouts/chat"
	"github.com/onnwee/twitch-timeouts/duration"
	"github.com/onnwee/twitch-timeouts/page"
	"github.com/onnwee/twitch-timeouts/telemetry"
)

const (
	// MarkerClass distinguishes annotations from the host's own chat lines.
	MarkerClass = "twitch-timeout"
	statusClass = "chat-line__status"
	background  = "background-color: rgba(255, 0, 0, 0.3)"
)

// Presenter renders into a chat page.
type Presenter struct {
	page *page.Page
}

// New returns a presenter drawing on p.
func New(p *page.Page) *Presenter {
	telemetry.Init()
	return &Presenter{page: p}
}

// Render appends an annotation for ev as the last transcript line.
func (p *Presenter) Render(ev chat.Event) error {
	var err error
	telemetry.TimeFunc(telemetry.RenderDuration, func() {
		err = p.page.Append(Annotation(ev))
	})
	if err != nil {
		return fmt.Errorf("render %s for %s: %w", ev.Kind(), ev.Target(), err)
	}
	return nil
}

// Prune removes the first transcript line if it is an annotation.
func (p *Presenter) Prune() error {
	removed, err := p.page.RemoveFirstIf(IsAnnotation)
	if err != nil {
		return err
	}
	if removed {
		telemetry.AnnotationsPruned.Inc()
		slog.Debug("pruned stale annotation", slog.String("component", "presenter"))
	}
	return nil
}

// IsAnnotation reports whether n is a line created by Annotation.
func IsAnnotation(n *html.Node) bool {
	return page.HasClass(n, MarkerClass)
}

// Annotation builds the detached node for ev. User names and message text
// become text nodes; only the wrapper tags are markup.
func Annotation(ev chat.Event) *html.Node {
	line := page.Element(atom.Div,
		html.Attribute{Key: "class", Val: statusClass + " " + MarkerClass},
		html.Attribute{Key: "style", Val: background},
	)
	span := page.Element(atom.Span)
	line.AppendChild(span)

	var quoted, label string
	switch e := ev.(type) {
	case chat.Timeout:
		appendAll(span, strong(e.User), page.Text(" "), em("was timed out for"), page.Text(" "),
			strong(duration.Format(e.DurationSeconds)), page.Text("."))
		quoted, label = e.LastMessage, "Last message:"
	case chat.PermanentBan:
		appendAll(span, strong(e.User), page.Text(" "), em("was"), page.Text(" "),
			strong("permanently banned"), page.Text("."))
		quoted, label = e.LastMessage, "Last message:"
	case chat.MessageCleared:
		appendAll(span, strong(e.User), page.Text(" "), em("had a message deleted"), page.Text("."))
		quoted, label = e.Message, "Deleted message:"
	}
	if quoted != "" {
		appendAll(span, page.Text(" "), em(label), page.Element(atom.Br), page.Text(quoted))
	}
	return line
}

func strong(text string) *html.Node { return wrap(atom.Strong, text) }

func em(text string) *html.Node { return wrap(atom.Em, text) }

func wrap(a atom.Atom, text string) *html.Node {
	n := page.Element(a)
	n.AppendChild(page.Text(text))
	return n
}

func appendAll(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}
