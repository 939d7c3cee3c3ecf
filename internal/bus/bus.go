// Package bus connects the daemon to a websocket hub so other shards
// (a UI, a remote microphone) can submit commands.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"deskvox/internal/action"
)

const (
	KindCommand = "command"
	KindReply   = "reply"
)

type Message struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Success  *bool  `json:"success,omitempty"`
}

// Handler runs a command received from the hub.
type Handler func(ctx context.Context, text, lang string) action.Result

type Client struct {
	name string
	conn *websocket.Conn
	wmu  sync.Mutex
}

// Dial connects to the hub at wsURL; name is the shard name used in From
// and matched against To.
func Dial(ctx context.Context, wsURL, name string) (*Client, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse bus url: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	log.Info("Connected to bus", "url", wsURL, "name", name)
	return &Client{name: name, conn: conn}, nil
}

func (c *Client) Read() (*Message, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Run answers command messages addressed to this shard (or to nobody)
// until ctx is cancelled or the hub goes away.
func (c *Client) Run(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		m, err := c.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				log.Warn("Dropped malformed bus message", "err", err)
				continue
			}
			return fmt.Errorf("bus read: %w", err)
		}
		if m.Kind != KindCommand || (m.To != "" && m.To != c.name) {
			continue
		}

		log.Debug("Bus command", "from", m.From, "text", m.Content)
		res := h(ctx, m.Content, m.Language)
		success := res.Success
		reply := &Message{
			From:     c.name,
			To:       m.From,
			Kind:     KindReply,
			Content:  res.Message,
			Language: m.Language,
			Success:  &success,
		}
		if err := c.Write(reply); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bus write: %w", err)
		}
	}
}
