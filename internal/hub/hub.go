package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/entity"
	"github.com/alwaisy/keyinsights-backend/internal/infra/metrics"
)

const subscriberBuffer = 8

// Subscriber is one live connection's view of a request's status updates.
type Subscriber struct {
	ch       chan *entity.Job
	done     chan struct{}
	doneOnce sync.Once
}

// Updates delivers status snapshots in write order. The channel is never
// closed; detachment is signalled via Done.
func (s *Subscriber) Updates() <-chan *entity.Job {
	return s.ch
}

// Done is closed once the subscriber has been detached from the hub.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Hub fans status writes out to the live subscribers of each request_id.
// Delivery is best-effort: a subscriber that cannot keep up is detached
// without affecting others or the writer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe(requestID string) *Subscriber {
	sub := &Subscriber{
		ch:   make(chan *entity.Job, subscriberBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.subs[requestID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[requestID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	metrics.ActiveSubscribers.Inc()
	return sub
}

func (h *Hub) Unsubscribe(requestID string, sub *Subscriber) {
	h.mu.Lock()
	set, ok := h.subs[requestID]
	if ok {
		if _, member := set[sub]; member {
			delete(set, sub)
			metrics.ActiveSubscribers.Dec()
		}
		if len(set) == 0 {
			delete(h.subs, requestID)
		}
	}
	h.mu.Unlock()

	sub.markDone()
}

// Broadcast delivers the status snapshot to every current subscriber of
// requestID. It iterates a snapshot of the subscriber set, so concurrent
// attach/detach cannot corrupt delivery. Subscribers with a full buffer are
// dropped.
func (h *Hub) Broadcast(requestID string, job *entity.Job) {
	h.mu.RLock()
	set := h.subs[requestID]
	snapshot := make([]*Subscriber, 0, len(set))
	for sub := range set {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	var stale []*Subscriber
	for _, sub := range snapshot {
		select {
		case <-sub.done:
		case sub.ch <- job:
		default:
			stale = append(stale, sub)
		}
	}

	for _, sub := range stale {
		h.logger.Debug("dropping slow subscriber", zap.String("request_id", requestID))
		h.Unsubscribe(requestID, sub)
	}
}

// SubscriberCount reports the live subscribers for one request_id.
func (h *Hub) SubscriberCount(requestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[requestID])
}
