package realtime

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry maps each user to their single live connection.
// The most recent Register wins; the superseded client stays open but no
// longer receives pushes.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.clients[userID]; ok && prev != c {
		log.Debugf("[ws][register] user=%s replaces previous connection", userID)
	}
	r.clients[userID] = c
}

// Unregister removes whatever mapping the user has. Unknown users are a no-op.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, userID)
}

// UnregisterClient removes the mapping only if it still points at c, so a
// stale connection going away does not drop its replacement.
func (r *Registry) UnregisterClient(userID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[userID] != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Push delivers an event to the user's current connection, if any.
// It never blocks on the socket and never reports failure.
func (r *Registry) Push(userID, event string, payload interface{}) {
	c, ok := r.Lookup(userID)
	if !ok {
		log.Debugf("[ws][push][offline] user=%s event=%s", userID, event)
		return
	}
	c.Send(event, payload)
}
