package messaging

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.Output = io.Discard
	logger, err := logging.NewChanneledLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return logger
}

func TestNotifyOnlyReachesForm(t *testing.T) {
	b := NewFormBroadcaster(testLogger(t))
	a := b.AddClient("f1")
	other := b.AddClient("f2")

	b.NotifyOptionsReady(OptionsReady{FormID: "f1", NodeID: 4, Kind: "groups", Count: 3})

	select {
	case raw := <-a.Send:
		var got OptionsReady
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatal(err)
		}
		want := OptionsReady{Event: "options_ready", FormID: "f1", NodeID: 4, Kind: "groups", Count: 3}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("message mismatch (-want +got):\n%s", diff)
		}
	default:
		t.Fatal("no message for f1 client")
	}
	select {
	case <-other.Send:
		t.Error("f2 client received f1 message")
	default:
	}
}

func TestRemoveClient(t *testing.T) {
	b := NewFormBroadcaster(testLogger(t))
	c := b.AddClient("f1")
	b.AddClient("f1")
	if n := b.ConnectionCount("f1"); n != 2 {
		t.Fatalf("ConnectionCount = %d", n)
	}
	b.RemoveClient(c)
	b.RemoveClient(c)
	if n := b.ConnectionCount("f1"); n != 1 {
		t.Errorf("ConnectionCount after remove = %d", n)
	}
	if _, ok := <-c.Send; ok {
		t.Error("send channel not closed")
	}
}

func TestServeWebSocket(t *testing.T) {
	b := NewFormBroadcaster(testLogger(t))
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.Serve(conn, b.AddClient("f1"))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for b.ConnectionCount("f1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	b.NotifyOptionsReady(OptionsReady{FormID: "f1", NodeID: 9})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"nodeId":9`) {
		t.Errorf("message = %s", raw)
	}
}
