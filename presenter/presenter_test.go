package presenter

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/onnwee/twitch-timeouts/chat"
	"github.com/onnwee/twitch-timeouts/page"
)

func newPresenter(t *testing.T) (*Presenter, *page.Page) {
	t.Helper()
	p, err := page.New("test", 0)
	if err != nil {
		t.Fatalf("page.New() error: %v", err)
	}
	return New(p), p
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

func TestAnnotationText(t *testing.T) {
	tests := []struct {
		name string
		ev   chat.Event
		want string
	}{
		{
			name: "timeout with last message",
			ev:   chat.Timeout{User: "foo", DurationSeconds: 600, LastMessage: "hello"},
			want: "foo was timed out for 10 minutes (600 seconds). Last message:hello",
		},
		{
			name: "timeout without last message",
			ev:   chat.Timeout{User: "foo", DurationSeconds: 1},
			want: "foo was timed out for 1 second.",
		},
		{
			name: "permanent ban",
			ev:   chat.PermanentBan{User: "bar", LastMessage: "bye"},
			want: "bar was permanently banned. Last message:bye",
		},
		{
			name: "message cleared",
			ev:   chat.MessageCleared{User: "baz", Message: "oops"},
			want: "baz had a message deleted. Deleted message:oops",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Annotation(tt.ev)
			if got := page.TextContent(n); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if !IsAnnotation(n) {
				t.Error("annotation missing marker class")
			}
		})
	}
}

func TestAnnotationMarkup(t *testing.T) {
	out := render(Annotation(chat.Timeout{User: "foo", DurationSeconds: 90, LastMessage: "hi"}))
	want := `<div class="chat-line__status twitch-timeout" style="background-color: rgba(255, 0, 0, 0.3)"><span><strong>foo</strong> <em>was timed out for</em> <strong>1.5 minutes (90 seconds)</strong>. <em>Last message:</em><br/>hi</span></div>`
	if out != want {
		t.Errorf("markup =\n%s\nwant\n%s", out, want)
	}
}

func TestAnnotationEscapesMessageText(t *testing.T) {
	out := render(Annotation(chat.PermanentBan{User: "<i>evil</i>", LastMessage: `<script>alert(1)</script>`}))
	if strings.Contains(out, "<script>") || strings.Contains(out, "<i>") {
		t.Fatalf("user content rendered as markup: %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Errorf("expected escaped script text in %s", out)
	}

	// Re-parsing the output must not produce a script element.
	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse rendered annotation: %v", err)
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "i") {
			t.Errorf("found parsed <%s> element from user content", n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func TestRenderAppendsLast(t *testing.T) {
	pr, p := newPresenter(t)
	_ = p.AppendChatLine("a", "first")
	if err := pr.Render(chat.PermanentBan{User: "a"}); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	children, _ := p.Children()
	if len(children) != 2 || !IsAnnotation(children[1]) {
		t.Fatalf("expected annotation as last of 2 children, got %d", len(children))
	}
}

func TestPruneThenRenderKeepsSingleAnnotation(t *testing.T) {
	pr, p := newPresenter(t)
	for _, user := range []string{"first", "second"} {
		if err := pr.Prune(); err != nil {
			t.Fatalf("Prune() error: %v", err)
		}
		if err := pr.Render(chat.PermanentBan{User: user}); err != nil {
			t.Fatalf("Render() error: %v", err)
		}
	}
	children, _ := p.Children()
	if len(children) != 1 {
		t.Fatalf("expected exactly one node, got %d", len(children))
	}
	if !IsAnnotation(children[0]) || !strings.HasPrefix(page.TextContent(children[0]), "second") {
		t.Errorf("top node = %q, want the second annotation", page.TextContent(children[0]))
	}
}

func TestPruneLeavesChatLines(t *testing.T) {
	pr, p := newPresenter(t)
	_ = p.AppendChatLine("a", "hello")
	_ = pr.Render(chat.PermanentBan{User: "a"})
	if err := pr.Prune(); err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	children, _ := p.Children()
	if len(children) != 2 {
		t.Errorf("prune removed a chat line; %d children left", len(children))
	}
}

func TestPruneEmptyTranscript(t *testing.T) {
	pr, _ := newPresenter(t)
	if err := pr.Prune(); err != nil {
		t.Errorf("Prune() on empty transcript error: %v", err)
	}
}
