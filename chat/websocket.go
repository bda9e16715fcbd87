package chat

import (
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with the small surface the gateway
// pumps need.
type Conn struct {
	socket *websocket.Conn
}

func NewConn(conn *websocket.Conn) *Conn {
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return &Conn{socket: conn}
}

func (c *Conn) Write(data []byte) error {
	return c.socket.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) Read() ([]byte, error) {
	_, p, err := c.socket.ReadMessage()
	return p, err
}

func (c *Conn) Ping() error {
	return c.socket.WriteMessage(websocket.PingMessage, nil)
}

func (c *Conn) Close(reason string) {
	c.socket.SetWriteDeadline(time.Now().Add(20 * time.Second))
	c.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	c.socket.Close()
}
