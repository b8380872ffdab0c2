package journal

import "sync"

// subscriberBuffer is the channel buffer size for each subscriber.
const subscriberBuffer = 100

// hub fans records out to subscribers.
type hub struct {
	mu          sync.RWMutex
	subscribers map[chan Record]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[chan Record]struct{})}
}

func (h *hub) subscribe() <-chan Record {
	ch := make(chan Record, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *hub) unsubscribe(ch <-chan Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// publish is non-blocking: a full subscriber buffer drops the record for
// that subscriber.
func (h *hub) publish(rec Record) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
