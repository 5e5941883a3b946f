package cafe

import (
	"sync"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// hub maps customers to the push hooks of their session. It never runs while
// a staging-area lock is held.
type hub struct {
	mu        sync.RWMutex
	listeners map[int64]interfaces.Listener
}

func newHub() *hub {
	return &hub{listeners: make(map[int64]interfaces.Listener)}
}

// register replaces any earlier registration for c.
func (h *hub) register(c *domain.Customer, l interfaces.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[c.ID] = l
}

func (h *hub) unregister(c *domain.Customer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, c.ID)
}

func (h *hub) lookup(c *domain.Customer) (interfaces.Listener, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	l, ok := h.listeners[c.ID]
	return l, ok
}

// fireCompleted reports whether a listener received the event.
func (h *hub) fireCompleted(o *domain.Order) bool {
	if o.IsEmpty() {
		return false
	}
	l, ok := h.lookup(o.Customer())
	if !ok || l.OnCompleted == nil {
		return false
	}
	l.OnCompleted(o)
	return true
}

func (h *hub) fireRepurposed(r domain.Repurposal) bool {
	l, ok := h.lookup(r.To)
	if !ok || l.OnRepurposed == nil {
		return false
	}
	l.OnRepurposed(r)
	return true
}
