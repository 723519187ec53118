package presenter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/twitch-timeouts/chat"
	"github.com/onnwee/twitch-timeouts/page"
	"github.com/onnwee/twitch-timeouts/testutil"
)

func TestReaderAnnotatesPageEndToEnd(t *testing.T) {
	rl := testutil.NewMockRelay(t)
	pres, pg := newPresenter(t)
	changes, unsubscribe := pg.Subscribe()
	defer unsubscribe()

	r := chat.NewReader(chat.Config{URL: rl.WSURL(), Username: "justinfan1"}, pres, pg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx, "https://www.twitch.tv/chan") }()

	conn := rl.Conn(t)
	rl.Expect(t, testutil.GuestHandshake("justinfan1", "chan")...)
	testutil.Send(t, conn,
		`@display-name=Foo;id=1a2b;room-id=11;user-id=22 :foo!foo@foo.tmi.twitch.tv PRIVMSG #chan :<i>spam</i>`,
		`@ban-duration=90;room-id=11;target-user-id=22 :tmi.twitch.tv CLEARCHAT #chan :foo`,
	)

	deadline := time.After(2 * time.Second)
	for annotated := false; !annotated; {
		select {
		case c := <-changes:
			annotated = c.Op == page.OpAppend && strings.Contains(c.HTML, MarkerClass)
		case <-deadline:
			t.Fatal("timed out waiting for annotation")
		}
	}

	children, err := pg.Children()
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("transcript has %d children, want chat line + annotation", len(children))
	}
	if IsAnnotation(children[0]) || !IsAnnotation(children[1]) {
		t.Error("annotation should follow the mirrored chat line")
	}
	want := "foo was timed out for 1.5 minutes (90 seconds). Last message:<i>spam</i>"
	if got := page.TextContent(children[1]); got != want {
		t.Errorf("annotation text = %q, want %q", got, want)
	}
}
