package messaging

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Client is one connected form instance.
type Client struct {
	FormID string
	Send   chan []byte
}

// FormBroadcaster fans option notifications out to the clients of a form.
type FormBroadcaster struct {
	forms  map[string]map[*Client]struct{}
	mu     sync.Mutex
	logger *logging.ChanneledLogger
}

// NewFormBroadcaster creates an empty broadcaster.
func NewFormBroadcaster(logger *logging.ChanneledLogger) *FormBroadcaster {
	return &FormBroadcaster{
		forms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// AddClient registers a client for formID.
func (b *FormBroadcaster) AddClient(formID string) *Client {
	c := &Client{FormID: formID, Send: make(chan []byte, sendBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.forms[formID] == nil {
		b.forms[formID] = make(map[*Client]struct{})
	}
	b.forms[formID][c] = struct{}{}

	b.logger.Forms().Debug("Form client registered", "formId", formID)
	return c
}

// RemoveClient unregisters c and closes its send channel.
func (b *FormBroadcaster) RemoveClient(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.forms[c.FormID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(b.forms, c.FormID)
	}
	b.logger.Forms().Debug("Form client unregistered", "formId", c.FormID)
}

// ConnectionCount returns the number of clients listening on formID.
func (b *FormBroadcaster) ConnectionCount(formID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.forms[formID])
}

// NotifyOptionsReady sends msg to every client of msg.FormID. Slow clients
// drop messages rather than block the fetcher.
func (b *FormBroadcaster) NotifyOptionsReady(msg OptionsReady) {
	msg.Event = "options_ready"
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Forms().Error("Failed to marshal options notification", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.forms[msg.FormID] {
		select {
		case c.Send <- payload:
		default:
			b.logger.Forms().Warn("Form client channel full, message dropped", "formId", msg.FormID, "nodeId", msg.NodeID)
		}
	}
}

// Serve pumps messages for c over conn until the peer goes away. It owns conn.
func (b *FormBroadcaster) Serve(conn *websocket.Conn, c *Client) {
	defer b.RemoveClient(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.logger.Forms().Debug("Form client write failed", "formId", c.FormID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
