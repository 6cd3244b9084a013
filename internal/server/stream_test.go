package server_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// dialStream starts an httptest server for f and opens a WebSocket stream.
func dialStream(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(f.srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, frame string) response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var r response
	if err := wsjson.Read(ctx, conn, &r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return r
}

func TestStream_Frames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	conn := dialStream(t, f)

	tests := []struct {
		frame     string
		wantText  string
		wantError string
	}{
		{frame: "il y a vingt et un chats point", wantText: "il y a 21 chats."},
		{frame: `{"text": "note deux points trois", "session_id": "s1"}`, wantText: "note : 3"},
		{frame: `{"text": `, wantError: "invalid JSON"},
		{frame: "   ", wantError: "text is required"},
		{frame: "cent deux", wantText: "102"},
	}
	for _, tt := range tests {
		got := exchange(t, conn, tt.frame)
		if got.Text != tt.wantText || !strings.Contains(got.Error, tt.wantError) {
			t.Errorf("frame %q = {text %q, error %q}, want {text %q, error ~%q}",
				tt.frame, got.Text, got.Error, tt.wantText, tt.wantError)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "")

	if n := len(f.store.Entries()); n != 3 {
		t.Errorf("journal entries = %d, want 3", n)
	}
}

func TestStream_ActiveStreamsGauge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	conn := dialStream(t, f)
	exchange(t, conn, "un")

	if n := f.counter(t, "dictee.active_streams"); n != 1 {
		t.Errorf("active streams while open = %d, want 1", n)
	}

	conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for f.counter(t, "dictee.active_streams") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("active streams did not drop to 0 after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStream_BinaryFrameRejected(t *testing.T) {
	t.Parallel()

	conn := dialStream(t, newFixture(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, []byte{0x01}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := conn.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusUnsupportedData {
		t.Errorf("close status = %v, want StatusUnsupportedData (err %v)", got, err)
	}
}

func TestStream_ServerCloseEndsStream(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	conn := dialStream(t, f)
	exchange(t, conn, "un")

	f.srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusGoingAway {
		t.Errorf("close status = %v, want StatusGoingAway (err %v)", got, err)
	}
}
