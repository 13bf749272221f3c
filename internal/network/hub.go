package network

// clientMessage pairs an inbound frame with the client that sent it, so the
// Hub can hand both to the EventHandler.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub owns the set of connected clients and serializes every event that
// touches shared game state onto a single goroutine. Room goroutines and
// timers that need to touch that state re-enter through Do.
type Hub struct {
	// Registered clients. Accessed only by the Hub goroutine.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Inbound frames from every client readLoop.
	incoming chan clientMessage

	// Deferred work posted from other goroutines (room loops, TTL timers).
	// Buffered so posting never blocks a simulation tick.
	tasks chan func()

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		tasks:      make(chan func(), 256),
		handler:    handler,
	}
}

// Do schedules fn to run on the Hub goroutine. It is the only safe way for
// code outside the Hub goroutine to mutate handler-owned state.
func (h *Hub) Do(fn func()) {
	h.tasks <- fn
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Closing send is the signal for the client's writeLoop to
				// stop. Done through Client.shutdown so concurrent TrySend
				// calls from room goroutines cannot hit a closed channel.
				client.shutdown()
				h.handler.OnDisconnect(client)
			}

		case clientMsg := <-h.incoming:
			h.handler.OnMessage(clientMsg.client, clientMsg.msg)

		case fn := <-h.tasks:
			fn()
		}
	}
}
