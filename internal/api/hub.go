/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time side of the factory server. Clients
    (typically the graph editor frontend) connect once and then receive a
    "factory_tick" message after every completed simulation tick, carrying
    the per-node runtime snapshot. The hub keeps the registry of connected
    clients and fans each broadcast out to all of them.

    Architecture:
    - Hub: The singleton manager.
    - Client: Represents one browser connection.
    - ServeWs: The HTTP handler that upgrades a standard GET request to a WebSocket.
*/

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/everforgeworks/fabrica/internal/sim"
)

// Message is the JSON envelope for all real-time communication.
type Message struct {
	Type    string      `json:"type"`    // Event type (e.g., "factory_tick")
	Payload interface{} `json:"payload"` // The actual data
}

// TickPayload is the body of a "factory_tick" message.
type TickPayload struct {
	Tick  uint64         `json:"tick"`
	Nodes []sim.NodeView `json:"nodes"`
}

// Client represents a single connected browser tab. It sits between the
// websocket connection and the Hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // buffered channel for outbound messages
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients map; map keys are cheap to add and remove.
	clients map[*Client]bool

	// Broadcast accepts pre-marshaled frames for every connected client.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new Hub. Call once at boot and run as a goroutine.
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// BroadcastTick marshals and queues one post-tick snapshot for all clients.
// Wired as a sim.Factory OnTick subscriber in main.
func (h *Hub) BroadcastTick(tick uint64, nodes []sim.NodeView) {
	frame, err := json.Marshal(Message{
		Type:    "factory_tick",
		Payload: TickPayload{Tick: tick, Nodes: nodes},
	})
	if err != nil {
		log.Printf("WS: marshal tick: %v", err)
		return
	}
	h.Broadcast <- frame
}

// Run is the main event loop for the Hub. It blocks, so run it in a
// goroutine: `go hub.Run()`.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Println("WS: New Connection Registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: assume the client hung or disconnected.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// upgrader configures the WebSocket handshake. CheckOrigin returns true to
// allow connections from any host (the CORS policy of the REST side).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades an HTTP request to a persistent WebSocket connection and
// registers the resulting client with the Hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WS Upgrade Error:", err)
		return
	}

	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256)}
	client.hub.register <- client

	// One goroutine per direction so a slow client never blocks the Hub.
	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. The tick feed is one-way: client messages
// are discarded, but the read loop is what notices a disconnect.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS Error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection. The
// loop exits when the Hub closes c.send.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
}
