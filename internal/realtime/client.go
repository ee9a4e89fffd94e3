package realtime

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client is one live connection of a user. Outbound messages go through a
// bounded queue drained by WritePump, so a slow socket never blocks a pusher.
type Client struct {
	userID string
	conn   *Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewClient(userID string, conn *Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) UserID() string { return c.userID }

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Send encodes an event and queues it. It reports false when the event was
// dropped because the client is closed or its queue is full.
func (c *Client) Send(event string, payload interface{}) bool {
	data, err := sonic.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Errorf("[ws][send][err] user=%s event=%s: %v", c.userID, event, err)
		return false
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		log.Warnf("[ws][send][drop] user=%s queue full", c.userID)
		return false
	}
}

// WritePump writes queued messages until the client is closed or a write fails.
func (c *Client) WritePump(writeTimeout time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteText(msg, writeTimeout); err != nil {
				log.Debugf("[ws][write][err] user=%s: %v", c.userID, err)
				c.Close()
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
