package message

import "arcade/internal/network"

// Push delivers msg to a sender, tolerating absent ones. Local aliases have
// no connection of their own, and broadcasts never block or fail loudly.
func Push(s network.Sender, msg network.Message) {
	if s == nil {
		return
	}
	s.TrySend(msg)
}
