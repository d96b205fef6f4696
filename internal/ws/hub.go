package ws

import (
	"sync"
)

// message routes a payload to all clients subscribed to a topic.
type message struct {
	topic   string
	payload []byte
}

// Hub maintains the set of active clients grouped by subscription topic and
// broadcasts messages to them.
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan message

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.topic]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.topic)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.topic] {
				select {
				case client.send <- msg.payload:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[msg.topic], client)
					if len(h.rooms[msg.topic]) == 0 {
						delete(h.rooms, msg.topic)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a payload to all clients subscribed to topic. It is the
// public API for the notification layer.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.broadcast <- message{topic: topic, payload: payload}
}
