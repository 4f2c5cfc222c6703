package events

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"video-processing/domain/event"
)

// Handler receives delivered events on the dispatcher goroutine
type Handler func(event.Event)

// Bus is an ordered, multi-subscriber broadcast of events. Publish never
// blocks: events are queued and a single dispatcher goroutine delivers them
// in publish order.
type Bus struct {
	mu        sync.Mutex
	nextSeq   uint64
	delivered uint64
	nextSubID uint64
	byKind    map[event.Kind]map[uint64]Handler
	all       map[uint64]Handler
	queue     []event.Event
	closed    bool
	progress  chan struct{}

	wake   chan struct{}
	done   chan struct{}
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Bus
type Option func(*Bus)

// WithLogger sets the logger used to report recovered subscriber panics
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithClock sets the time source used for event timestamps
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		b.now = now
	}
}

// NewBus creates a bus and starts its dispatcher
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		byKind:   make(map[event.Kind]map[uint64]Handler),
		all:      make(map[uint64]Handler),
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.dispatch()
	return b
}

// Subscription identifies one registered handler
type Subscription struct {
	bus  *Bus
	id   uint64
	kind event.Kind
	all  bool
}

// Remove unregisters the handler. Deliveries already in flight still
// reach it.
func (s *Subscription) Remove() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.Unsubscribe(s)
}

// Subscribe registers handler for one event kind
func (b *Bus) Subscribe(kind event.Kind, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	set, ok := b.byKind[kind]
	if !ok {
		set = make(map[uint64]Handler)
		b.byKind[kind] = set
	}
	set[b.nextSubID] = handler
	return &Subscription{bus: b, id: b.nextSubID, kind: kind}
}

// SubscribeAll registers handler for every event kind
func (b *Bus) SubscribeAll(handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	b.all[b.nextSubID] = handler
	return &Subscription{bus: b, id: b.nextSubID, all: true}
}

// Unsubscribe removes exactly the given subscription
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.all {
		delete(b.all, sub.id)
		return
	}
	if set, ok := b.byKind[sub.kind]; ok {
		delete(set, sub.id)
		if len(set) == 0 {
			delete(b.byKind, sub.kind)
		}
	}
}

// Publish assigns the next sequence number and a timestamp, queues the
// event and returns it. Events published after Close are dropped.
func (b *Bus) Publish(e event.Event) event.Event {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return e
	}
	b.nextSeq++
	e.Seq = b.nextSeq
	if e.Timestamp.IsZero() {
		e.Timestamp = b.now().UTC()
	}
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return e
}

// Flush waits until every event published before the call has been
// delivered, or ctx is done
func (b *Bus) Flush(ctx context.Context) error {
	b.mu.Lock()
	target := b.nextSeq
	b.mu.Unlock()

	for {
		b.mu.Lock()
		if b.delivered >= target {
			b.mu.Unlock()
			return nil
		}
		progress := b.progress
		b.mu.Unlock()

		select {
		case <-progress:
		case <-b.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close delivers what is already queued and stops the dispatcher
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)

	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		closed := b.closed
		b.mu.Unlock()

		for _, e := range batch {
			for _, h := range b.snapshot(e.Kind) {
				b.deliver(h, e)
			}
			b.mu.Lock()
			b.delivered = e.Seq
			close(b.progress)
			b.progress = make(chan struct{})
			b.mu.Unlock()
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-b.wake
	}
}

// snapshot copies the handlers for kind in subscription order
func (b *Bus) snapshot(kind event.Kind) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.byKind[kind]
	ids := make([]uint64, 0, len(set)+len(b.all))
	for id := range set {
		ids = append(ids, id)
	}
	for id := range b.all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		if h, ok := set[id]; ok {
			handlers = append(handlers, h)
			continue
		}
		handlers = append(handlers, b.all[id])
	}
	return handlers
}

func (b *Bus) deliver(h Handler, e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				"kind", e.Kind,
				"session_id", e.SessionID,
				"seq", e.Seq,
				"panic", r,
			)
		}
	}()
	h(e)
}
