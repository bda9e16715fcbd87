package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const selfID = "bathbot"

const pingPeriod = 30 * time.Second

// frame is the JSON wire format between the gateway and websocket clients.
type frame struct {
	Type     string `json:"type"` // "chat" or "image"
	Sender   string `json:"sender,omitempty"`
	Name     string `json:"name,omitempty"`
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Image    []byte `json:"image,omitempty"`
}

type client struct {
	id      string
	user    string
	name    string
	conn    *Conn
	send    chan []byte
	limiter *rate.Limiter
}

// hub is the actor owning one channel: connected clients, engine
// subscribers, and all fan-out go through its loop.
type hub struct {
	channel      string
	register     chan *client
	unregister   chan *client
	inbound      chan Message
	broadcast    chan []byte
	subscribes   chan chan Message
	unsubscribes chan chan Message

	clients     map[*client]bool
	subscribers map[chan Message]bool

	log zerolog.Logger
}

func newHub(channel string, log zerolog.Logger) *hub {
	return &hub{
		channel:      channel,
		register:     make(chan *client),
		unregister:   make(chan *client),
		inbound:      make(chan Message, 256),
		broadcast:    make(chan []byte, 64),
		subscribes:   make(chan chan Message),
		unsubscribes: make(chan chan Message),
		clients:      make(map[*client]bool),
		subscribers:  make(map[chan Message]bool),
		log:          log.With().Str("channel", channel).Logger(),
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.log.Debug().Str("user", c.user).Msg("client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case msg := <-h.inbound:
			for sub := range h.subscribers {
				select {
				case sub <- msg:
				default:
					// Subscriber is not keeping up, drop rather than stall
					// the whole channel.
				}
			}
			if data, err := json.Marshal(frame{Type: "chat", Sender: msg.Sender, Name: msg.Name, Text: msg.Text}); err == nil {
				h.fanOut(data)
			}

		case data := <-h.broadcast:
			h.fanOut(data)

		case sub := <-h.subscribes:
			h.subscribers[sub] = true

		case sub := <-h.unsubscribes:
			if h.subscribers[sub] {
				delete(h.subscribers, sub)
				close(sub)
			}
		}
	}
}

func (h *hub) fanOut(data []byte) {
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Gateway is a websocket chat backend: one hub goroutine per channel,
// read/write pumps per connection.
type Gateway struct {
	mu   sync.RWMutex
	hubs map[string]*hub
	log  zerolog.Logger
}

func NewGateway(log zerolog.Logger) *Gateway {
	return &Gateway{
		hubs: make(map[string]*hub),
		log:  log,
	}
}

func (g *Gateway) SelfID() string { return selfID }

func (g *Gateway) hub(channel string) *hub {
	g.mu.RLock()
	h, ok := g.hubs[channel]
	g.mu.RUnlock()
	if ok {
		return h
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := g.hubs[channel]; ok {
		return h
	}

	h = newHub(channel, g.log)
	g.hubs[channel] = h
	go h.run()

	return h
}

func (g *Gateway) Subscribe(channel string) (<-chan Message, func()) {
	h := g.hub(channel)

	sub := make(chan Message, 256)
	h.subscribes <- sub

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.unsubscribes <- sub })
	}

	return sub, cancel
}

func (g *Gateway) SendText(ctx context.Context, channel, text string) error {
	data, err := json.Marshal(frame{Type: "chat", Sender: selfID, Name: "Bathbot", Text: text})
	if err != nil {
		return err
	}
	return g.deliver(ctx, channel, data)
}

func (g *Gateway) SendImage(ctx context.Context, channel, name string, image []byte) error {
	data, err := json.Marshal(frame{Type: "image", Sender: selfID, Name: "Bathbot", FileName: name, Image: image})
	if err != nil {
		return err
	}
	return g.deliver(ctx, channel, data)
}

func (g *Gateway) deliver(ctx context.Context, channel string, data []byte) error {
	h := g.hub(channel)

	select {
	case h.broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS attaches an upgraded websocket connection to its channel hub and
// blocks pumping messages until the client disconnects.
func (g *Gateway) ServeWS(socket *websocket.Conn, channel, user, name string) {
	h := g.hub(channel)

	c := &client{
		id:      uuid.NewString(),
		user:    user,
		name:    name,
		conn:    NewConn(socket),
		send:    make(chan []byte, 256),
		limiter: rate.NewLimiter(1, 5),
	}

	h.register <- c

	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close("")
	}()

	for {
		data, err := c.conn.Read()
		if err != nil {
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		if f.Type != "chat" || f.Text == "" {
			continue
		}

		h.inbound <- Message{Channel: h.channel, Sender: c.user, Name: c.name, Text: f.Text}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				return
			}
		}
	}
}
