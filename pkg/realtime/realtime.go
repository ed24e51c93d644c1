// Package realtime is an in-process publish/subscribe hub that fans newly
// stored searches out to live listeners (websocket sessions on /api/searches/live).
//
// Delivery is best effort: every listener has its own buffered channel and
// an event is dropped for a listener whose buffer is full. There is no
// persistence or replay; clients backfill from /api/searches/recent when they
// connect.
package realtime

import (
	"sync"

	"github.com/rubiojr/basket/pkg/core"
)

// Event types.
const (
	TypeSearch = "search"
	TypeInfo   = "info"
)

// SearchEvent announces a newly stored search.
type SearchEvent struct {
	Query     string `json:"query"`
	Location  string `json:"location"`
	Pincode   string `json:"pincode"`
	Timestamp string `json:"timestamp"`
	// Platforms counts matches per source platform.
	Platforms map[string]int       `json:"platforms"`
	Matches   []core.ProductRecord `json:"matches"`
}

// Event is the envelope sent to listeners. Search is set when Type is
// TypeSearch, Message when Type is TypeInfo.
type Event struct {
	Type    string       `json:"type"`
	Search  *SearchEvent `json:"search,omitempty"`
	Message string       `json:"message,omitempty"`
}

// NewSearchEvent builds the event for a stored record.
func NewSearchEvent(rec core.SearchRecord) SearchEvent {
	platforms := make(map[string]int)
	for _, m := range rec.Results.Matches {
		platforms[m.Platform]++
	}
	return SearchEvent{
		Query:     rec.Query,
		Location:  rec.Location,
		Pincode:   rec.Pincode,
		Timestamp: rec.Timestamp,
		Platforms: platforms,
		Matches:   rec.Results.Matches,
	}
}

// Hub fans events out to registered listeners. It is safe for concurrent
// use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener that has room for it.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// slow listener
		}
	}
}

// PublishSearch broadcasts a stored record as a search event.
func (h *Hub) PublishSearch(rec core.SearchRecord) {
	se := NewSearchEvent(rec)
	h.Broadcast(Event{Type: TypeSearch, Search: &se})
}

// Size returns the number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
