package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

// Client owns one websocket connection for the lifetime of the socket.
type Client struct {
	id     uuid.UUID
	userID uint
	name   string
	conn   *websocket.Conn
	lobby  *Lobby
	send   chan []byte
	once   sync.Once
}

func NewClient(conn *websocket.Conn, userID uint, name string) *Client {
	return &Client{
		id:     uuid.New(),
		userID: userID,
		name:   name,
		conn:   conn,
		send:   make(chan []byte, 32),
	}
}

func (c *Client) UserID() uint { return c.userID }

// Run starts the pumps; the connection is live from here until readPump
// returns.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// --------------------
// Client read/write pumps
// --------------------
func (c *Client) readPump() {
	defer func() {
		c.lobby.RemoveClient(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("[Client %d] conn %s disconnected normally", c.userID, c.id)
			} else {
				logger.Infof("[Client %d] conn %s read error: %v", c.userID, c.id, err)
			}
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage decodes and dispatches one inbound frame. Malformed or
// unknown messages are logged and ignored; a panic in a handler is
// recovered so one bad message cannot take down the connection.
func (c *Client) handleMessage(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Client %d] recovered from panic: %v", c.userID, r)
		}
	}()

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Infof("[Client %d] invalid message: %v", c.userID, err)
		return
	}

	c.lobby.HandleMessage(c, msg)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Infof("[Client %d] write error: %v", c.userID, err)
			return
		}
	}
}
