// Package realtime is a thin client over the hosted realtime channel
// primitive. Durability, fan-out and subscription bookkeeping live on the
// hosted side; this client only registers callbacks and forwards payloads.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parley-app/parley/internal/logger"
)

// Event names carried on the wire.
const (
	EventJoin          = "join"
	EventLeave         = "leave"
	EventMessage       = "message"
	EventPresenceTrack = "presence_track"
	EventPresenceLeave = "presence_leave"
)

// Message is a single frame on a realtime channel.
type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Sender  string          `json:"sender,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sent_at,omitempty"`
}

// Handler receives messages for a subscribed channel.
type Handler func(Message)

// Client maintains one websocket connection and dispatches incoming frames
// to channel subscribers.
type Client struct {
	conn   *websocket.Conn
	logger *logger.Logger
	send   chan Message

	mu     sync.Mutex
	subs   map[string]map[int]Handler
	nextID int

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the realtime endpoint, authenticating with the session
// access token.
func Dial(ctx context.Context, url, accessToken string, logger *logger.Logger) (*Client, error) {
	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}

	c := &Client{
		conn:   conn,
		logger: logger,
		send:   make(chan Message, 256),
		subs:   make(map[string]map[int]Handler),
		done:   make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()

	return c, nil
}

// Subscribe registers a handler for a channel, joining it on the first
// subscription. The returned unsubscribe is deterministic: the last
// subscriber leaving sends the leave frame.
func (c *Client) Subscribe(channel string, fn Handler) func() {
	c.mu.Lock()
	handlers, ok := c.subs[channel]
	if !ok {
		handlers = make(map[int]Handler)
		c.subs[channel] = handlers
	}
	id := c.nextID
	c.nextID++
	handlers[id] = fn
	first := len(handlers) == 1
	c.mu.Unlock()

	if first {
		c.enqueue(Message{Channel: channel, Event: EventJoin})
	}

	return func() {
		c.mu.Lock()
		handlers, ok := c.subs[channel]
		if ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(c.subs, channel)
			}
		}
		last := ok && len(handlers) == 0
		c.mu.Unlock()

		if last {
			c.enqueue(Message{Channel: channel, Event: EventLeave})
		}
	}
}

// Send publishes a chat message on a channel.
func (c *Client) Send(channel, sender string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}

	c.enqueue(Message{
		Channel: channel,
		Event:   EventMessage,
		Sender:  sender,
		Payload: raw,
		SentAt:  time.Now(),
	})
	return nil
}

// TrackPresence announces the sender as present on the channel.
func (c *Client) TrackPresence(channel, sender string) {
	c.enqueue(Message{Channel: channel, Event: EventPresenceTrack, Sender: sender, SentAt: time.Now()})
}

// UntrackPresence withdraws the sender's presence from the channel.
func (c *Client) UntrackPresence(channel, sender string) {
	c.enqueue(Message{Channel: channel, Event: EventPresenceLeave, Sender: sender, SentAt: time.Now()})
}

// Close tears the connection down and stops both pumps.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
	})
	return err
}

func (c *Client) enqueue(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Error("Realtime client: send buffer full, dropping frame",
			"channel", msg.Channel,
			"event", msg.Event)
	}
}

func (c *Client) readPump() {
	defer c.Close()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Debug("Realtime client: read loop ended",
					"error", err.Error())
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) writePump() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Realtime client: failed to write frame",
					"channel", msg.Channel,
					"event", msg.Event,
					"error", err.Error())
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(msg Message) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs[msg.Channel]))
	for _, fn := range c.subs[msg.Channel] {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
}
