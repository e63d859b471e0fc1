package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shadowchat/shadowchat/internal/stats"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var errSendBufferFull = errors.New("send buffer full")

// Client is one websocket session joined to a single room.
type Client struct {
	conn    *websocket.Conn
	gateway *Gateway
	log     *log.Logger
	token   string
	send    chan *ServerMessage
	stats   stats.StatsProvider
	stop    chan struct{}
}

func NewClient(token string, conn *websocket.Conn, g *Gateway, l *log.Logger, su stats.StatsProvider) *Client {
	return &Client{
		conn:    conn,
		gateway: g,
		log:     l,
		token:   token,
		send:    make(chan *ServerMessage, 256),
		stats:   su,
		stop:    make(chan struct{}),
	}
}

// Start launches the session's pumps after a successful join.
func (c *Client) Start() {
	c.stats.Incr("NumConnections")
	go c.Write()
	go c.Read()
}

// Reject writes msg directly and closes the connection. Used for connections
// against terminal rooms, which never get pumps.
func (c *Client) Reject(msg *ServerMessage) {
	defer c.conn.Close()

	bytes, err := serializeMessage(msg)
	if err != nil {
		c.log.Println("failed to serialize message:", err)
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
		c.log.Printf("write reject message: %s", err)
	}
}

// Deliver queues msg for the write pump. A full buffer means the peer stopped
// draining; report it as a delivery failure so the registry drops the member.
func (c *Client) Deliver(msg *ServerMessage) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.stop:
		return errors.New("session closed")
	default:
		return errSendBufferFull
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Println("write exiting")
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Println("read exiting")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			continue
		}

		c.dispatch(&msg)
	}
}

// dispatch routes an inbound frame by its type discriminator. Unknown types
// are logged and dropped; the session continues.
func (c *Client) dispatch(msg *ClientMessage) {
	switch msg.Type {
	case TypeMsg:
		c.gateway.HandleMessage(c.token, msg)
	case TypeBurnSignal:
		c.gateway.HandleBurn(context.Background(), c.token)
	default:
		c.log.Printf("ignoring message with unknown type %q in room %q", msg.Type, c.token)
	}
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	close(c.stop)
}

func (c *Client) cleanup() {
	c.gateway.Disconnect(c.token, c)
	c.stats.Decr("NumConnections")
	c.stopClient()
}
