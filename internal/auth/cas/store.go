// Package cas implements the ticket-based proxy callback receptor and
// the time-bounded correlation store that reconciles asynchronous
// proxy-ticket callbacks with the request awaiting them.
package cas

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
)

// TicketStore maps a short-lived correlation key (IOU) to the delegated
// ticket. Safe for concurrent insertion, consumption and eviction.
type TicketStore interface {
	// Save stores the IOU -> ticket mapping.
	Save(iou, ticket string)

	// Retrieve consumes the ticket for the IOU: at most one caller gets
	// it, the entry is gone afterwards.
	Retrieve(iou string) (string, bool)

	// Stop cancels the background sweep, if any. Idempotent.
	Stop()
}

// memoryStore is the in-process TicketStore. TTL bookkeeping rides on
// go-cache; the sweep is an explicit goroutine owned by the store so its
// lifetime never depends on garbage collection.
type memoryStore struct {
	mu       sync.Mutex
	c        *gocache.Cache
	interval time.Duration

	stopOnce sync.Once
	done     chan struct{}
	log      *zap.Logger
}

// NewMemoryStore creates a ticket store whose entries expire after
// interval, swept in the background every interval. interval <= 0
// disables expiry and the sweep: entries then only leave via Retrieve.
func NewMemoryStore(interval time.Duration) TicketStore {
	s := &memoryStore{
		interval: interval,
		done:     make(chan struct{}),
		log:      logger.Named("cas.ticketstore"),
	}
	if interval <= 0 {
		s.c = gocache.New(gocache.NoExpiration, 0)
		return s
	}
	s.c = gocache.New(interval, 0)
	go s.sweep()
	return s
}

func (s *memoryStore) Save(iou, ticket string) {
	s.mu.Lock()
	s.c.SetDefault(iou, ticket)
	s.mu.Unlock()
	metrics.TicketsSaved.Inc()
}

func (s *memoryStore) Retrieve(iou string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(iou)
	if !ok {
		return "", false
	}
	s.c.Delete(iou)
	metrics.TicketsConsumed.Inc()
	ticket, _ := v.(string)
	return ticket, true
}

// sweep deletes expired entries every interval until Stop. Each pass is a
// bounded synchronous scan; there is no cancellation point mid-pass.
func (s *memoryStore) sweep() {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.mu.Lock()
			before := s.c.ItemCount()
			s.c.DeleteExpired()
			evicted := before - s.c.ItemCount()
			s.mu.Unlock()
			if evicted > 0 {
				metrics.TicketsEvicted.Add(float64(evicted))
				s.log.Debug("swept expired tickets", zap.Int("evicted", evicted))
			}
		case <-s.done:
			return
		}
	}
}

func (s *memoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
