package gateway

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hybridz/tgstream/internal/delivery"
)

// UpdateMessage is the frame sent to a downstream gateway for each
// classified update.
type UpdateMessage struct {
	Type     string `json:"type"` // always "update"
	Kind     string `json:"kind"`
	UpdateID int64  `json:"update_id"`
	Payload  any    `json:"payload"`
}

// FromTagged converts a classified update into its gateway frame.
func FromTagged(t delivery.TaggedUpdate) UpdateMessage {
	return UpdateMessage{
		Type:     "update",
		Kind:     string(t.Kind),
		UpdateID: t.ID,
		Payload:  t.Payload,
	}
}

// Client manages a WebSocket connection to a downstream update consumer.
type Client struct {
	url   string
	token string
	conn  *websocket.Conn
	mu    sync.Mutex
}

// NewClient creates a gateway WebSocket client.
func NewClient(url, token string) *Client {
	return &Client{
		url:   url,
		token: token,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := make(map[string][]string)
	if c.token != "" {
		header["Authorization"] = []string{"Bearer " + c.token}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}

	c.conn = conn
	log.Printf("connected to gateway at %s", c.url)
	return nil
}

// Send forwards one frame to the gateway.
func (c *Client) Send(msg UpdateMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected to gateway")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
