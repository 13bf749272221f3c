package network

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests into websocket clients and feeds them to the
// Hub.
type Server struct {
	hub *Hub
}

var upgrader = websocket.Upgrader{
	// Any origin is accepted; the platform has no browser-side auth and peers
	// identify themselves after connecting.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewServer wires the given game logic handler into a fresh Hub.
func NewServer(handler EventHandler) *Server {
	return &Server{
		hub: NewHub(handler),
	}
}

// Hub exposes the server's hub so the game logic can schedule work onto the
// hub goroutine (see Hub.Do).
func (s *Server) Hub() *Hub {
	return s.hub
}

// WSHandler is the HTTP entry point for player connections.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		hub:  s.hub,
		send: make(chan Message, 256),
	}

	client.hub.register <- client

	go client.writeLoop()
	go client.readLoop()
}

// Listen starts the Hub and serves websocket connections on /ws using the
// given mux, alongside whatever else the caller registered (health checks).
func (s *Server) Listen(address string, mux *http.ServeMux) error {
	go s.hub.Run()

	mux.HandleFunc("/ws", s.WSHandler)

	log.Printf("[Server] listening on ws://%s/ws", address)
	return http.ListenAndServe(address, mux)
}
