package events

import "sync"

// Hub fans events out to SSE subscribers. It remembers the most recent
// snapshot event so a subscriber that connects between runs still sees
// the latest state.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	last    string
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

// Subscribe registers a new client. If a snapshot was already published
// the latest one is pre-queued on the returned channel.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 10)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	if h.last != "" {
		ch <- h.last
	}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// PublishSnapshot publishes evt and retains it for late subscribers.
func (h *Hub) PublishSnapshot(evt string) {
	h.mu.Lock()
	h.last = evt
	h.mu.Unlock()
	h.Publish(evt)
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
