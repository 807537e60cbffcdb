// Package messaging defines interfaces for real-time form notifications.
package messaging

import "github.com/gorilla/websocket"

// OptionsReady tells a form client that a remote option list finished
// loading and the node should be re-rendered.
type OptionsReady struct {
	Event      string `json:"event"`
	FormID     string `json:"formId"`
	NodeID     int    `json:"nodeId"`
	Kind       string `json:"kind"`
	Generation uint64 `json:"generation"`
	Count      int    `json:"count"`
}

// Notifier receives option fetch completions.
type Notifier interface {
	NotifyOptionsReady(msg OptionsReady)
}

// Broadcaster manages per-form client connections.
type Broadcaster interface {
	Notifier
	AddClient(formID string) *Client
	RemoveClient(c *Client)
	ConnectionCount(formID string) int
	Serve(conn *websocket.Conn, c *Client)
}
