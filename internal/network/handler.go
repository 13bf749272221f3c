package network

// Sender is the outbound half of a connection. Rooms and the lobby hold
// senders rather than concrete clients so tests can substitute fakes.
type Sender interface {
	TrySend(msg Message) bool
}

// EventHandler is the seam between the network layer and the game logic.
// All three callbacks run on the Hub goroutine, so implementations can keep
// their state unsynchronized.
type EventHandler interface {
	// OnConnect is called after a client completes the websocket upgrade.
	OnConnect(c *Client)

	// OnDisconnect is called once when a client goes away, for any reason.
	OnDisconnect(c *Client)

	// OnMessage is called for every decoded frame a client sends.
	OnMessage(c *Client, msg Message)
}
