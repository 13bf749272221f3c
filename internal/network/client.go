package network

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to the peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client is the server-side representation of one connected player: the
// websocket connection plus its outbound queue.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// Buffered outbound queue. The writeLoop goroutine drains it; everyone
	// else enqueues through TrySend. The buffer absorbs bursts so a slow
	// reader never stalls a room tick.
	send chan Message

	mu     sync.Mutex
	closed bool
}

// Conn exposes the underlying connection, mainly for its remote address.
func (c *Client) Conn() net.Conn {
	return c.conn.UnderlyingConn()
}

// TrySend enqueues msg without blocking. A full queue or an already closed
// client drops the message: broadcasts are fire-and-forget and the simulation
// must never wait on a consumer.
func (c *Client) TrySend(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// shutdown closes the outbound queue exactly once. Called by the Hub
// goroutine during unregister.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Client %s] unexpected close: %v", c.conn.RemoteAddr(), err)
			}
			break
		}

		c.hub.incoming <- clientMessage{client: c, msg: msg}
	}
}

// writeLoop pumps messages from the send queue to the websocket connection,
// interleaving keepalive pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the queue: the client was unregistered.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
