// Package engine reconciles the per-scope order store against the REST
// gateway (snapshot loads) and the push channel (incremental events), and
// exposes the optimistic mutate-with-rollback operation the UI drives.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/MikeMC777/pedidos-live/internal/order"
	"github.com/MikeMC777/pedidos-live/internal/push"
	"github.com/MikeMC777/pedidos-live/internal/status"
)

// Gateway is the REST boundary the engine loads from and mutates through.
// *gateway.Client satisfies it.
type Gateway interface {
	FetchByBusiness(ctx context.Context, businessID string) ([]order.Order, error)
	FetchByUser(ctx context.Context, userID string) ([]order.Order, error)
	MutateStatus(ctx context.Context, orderID string, st status.Status, note string) (*order.Order, error)
}

var (
	// ErrMutationInFlight rejects a second UpdateStatus for an order whose
	// previous mutation has not settled yet.
	ErrMutationInFlight  = errors.New("mutation already in progress for this order")
	ErrUnknownOrder      = errors.New("order not found in store")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Events for an order the store has never seen are buffered up to this
// many entries per order, oldest evicted first.
const maxBufferedPerOrder = 8

// Engine owns the store exclusively: every mutation goes through its
// entry points, which serialize under one mutex. Readers get copies.
type Engine struct {
	mu       sync.Mutex
	store    *order.Store
	gw       Gateway
	scope    push.Scope
	policy   status.CancelPolicy
	inflight map[string]bool
	pending  map[string][]push.StatusChanged
	metrics  *Metrics
	now      func() time.Time
}

type Option func(*Engine)

func WithCancelPolicy(p status.CancelPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(gw Gateway, scope push.Scope, opts ...Option) *Engine {
	e := &Engine{
		store:    order.NewStore(),
		gw:       gw,
		scope:    scope,
		policy:   status.CancelFromPending,
		inflight: make(map[string]bool),
		pending:  make(map[string][]push.StatusChanged),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the full snapshot for the scope and replaces the store's
// contents. On failure the existing store is left intact: stale-but-present
// beats empty.
func (e *Engine) Load(ctx context.Context) error {
	var orders []order.Order
	var err error
	switch e.scope.Kind {
	case push.ScopeUser:
		orders, err = e.gw.FetchByUser(ctx, e.scope.ID)
	default:
		orders, err = e.gw.FetchByBusiness(ctx, e.scope.ID)
	}
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Clear()
	for i := range orders {
		e.store.Upsert(&orders[i])
	}
	for id := range e.pending {
		e.replayLocked(id)
	}
	return nil
}

// UpdateStatus applies the optimistic patch, calls the gateway and either
// confirms with the server's order or rolls the one order back. A second
// call for the same id while the first is in flight fails with
// ErrMutationInFlight.
func (e *Engine) UpdateStatus(ctx context.Context, orderID string, newStatus status.Status, note string) (*order.Order, error) {
	e.mu.Lock()
	if e.inflight[orderID] {
		e.mu.Unlock()
		e.metrics.mutation(resultRejected)
		return nil, ErrMutationInFlight
	}
	snapshot, ok := e.store.Get(orderID)
	if !ok {
		e.mu.Unlock()
		return nil, ErrUnknownOrder
	}
	if !status.CanTransition(snapshot.Status, newStatus, e.policy) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, snapshot.Status, newStatus)
	}

	now := e.now().UTC()
	st := newStatus
	e.store.Patch(orderID, order.Patch{
		Status:    &st,
		UpdatedAt: &now,
		AppendHistory: &order.HistoryEntry{
			Status:    newStatus,
			Timestamp: now,
			Note:      note,
		},
	})
	e.inflight[orderID] = true
	e.mu.Unlock()

	srv, err := e.gw.MutateStatus(ctx, orderID, newStatus, note)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, orderID)
	if err != nil {
		// Roll back only if the store still holds our optimistic guess; a
		// push event may have delivered something newer while we waited.
		if cur, ok := e.store.Get(orderID); ok {
			if last, has := cur.LastHistory(); has && cur.Status == newStatus && last.Timestamp.Equal(now) {
				e.store.Upsert(snapshot)
			}
		}
		e.metrics.mutation(resultRolledBack)
		return nil, err
	}
	// Server fields win over the optimistic guess.
	e.store.Upsert(srv)
	e.metrics.mutation(resultConfirmed)
	return srv.Clone(), nil
}

// HandlePush merges one push-delivered event into the store. Safe to call
// concurrently with Load and UpdateStatus.
func (e *Engine) HandlePush(ev push.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev := ev.(type) {
	case push.OrderCreated:
		e.metrics.pushEvent(kindOrderCreated)
		if ev.Order == nil || ev.Order.ID == "" {
			return
		}
		if cur, ok := e.store.Get(ev.Order.ID); ok {
			// Already known (REST load raced the push): merge, keep the
			// newer side, never duplicate.
			if cur.UpdatedAt.After(ev.Order.UpdatedAt) {
				e.metrics.pushSkipped(reasonStale)
				return
			}
		}
		e.store.Upsert(ev.Order)
		e.replayLocked(ev.Order.ID)
	case push.StatusChanged:
		e.metrics.pushEvent(kindStatusChanged)
		if _, ok := e.store.Get(ev.OrderID); !ok {
			e.bufferLocked(ev)
			return
		}
		e.applyStatusLocked(ev)
	}
}

// Run subscribes to the channel for the engine's scope and pumps events
// until the stream closes or ctx is done. Blocking; run it in a goroutine.
func (e *Engine) Run(ctx context.Context, ch push.Channel) error {
	events, err := ch.Subscribe(ctx, e.scope)
	if err != nil {
		return err
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.HandlePush(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// bufferLocked keeps an event for an order the store has not seen yet.
// Without the full payload the event is unusable; it replays once the
// order arrives via a load or an order-created event. Not user-actionable,
// so logged only.
func (e *Engine) bufferLocked(ev push.StatusChanged) {
	buf := append(e.pending[ev.OrderID], ev)
	if len(buf) > maxBufferedPerOrder {
		buf = buf[len(buf)-maxBufferedPerOrder:]
	}
	e.pending[ev.OrderID] = buf
	e.metrics.pushBuffered()
	log.Printf("[engine] buffered status event for unknown order %s (%s)", ev.OrderID, ev.Status)
}

func (e *Engine) replayLocked(id string) {
	evs := e.pending[id]
	if len(evs) == 0 {
		return
	}
	delete(e.pending, id)
	sort.Slice(evs, func(i, j int) bool { return evs[i].Timestamp.Before(evs[j].Timestamp) })
	for _, ev := range evs {
		e.applyStatusLocked(ev)
	}
}

// applyStatusLocked applies a status event with the two guards the channel
// contract requires: no duplicate history entries and no regression to an
// earlier state.
func (e *Engine) applyStatusLocked(ev push.StatusChanged) {
	cur, ok := e.store.Get(ev.OrderID)
	if !ok {
		return
	}
	if last, has := cur.LastHistory(); has && !ev.Timestamp.After(last.Timestamp) {
		e.metrics.pushSkipped(reasonDuplicate)
		return
	}
	if status.IsTerminal(cur.Status) {
		e.metrics.pushSkipped(reasonStale)
		return
	}
	if ev.Status != status.Cancelled && status.Rank(ev.Status) <= status.Rank(cur.Status) {
		e.metrics.pushSkipped(reasonStale)
		return
	}

	st := ev.Status
	ts := ev.Timestamp
	e.store.Patch(ev.OrderID, order.Patch{
		Status:    &st,
		UpdatedAt: &ts,
		AppendHistory: &order.HistoryEntry{
			Status:    st,
			Timestamp: ts,
			Note:      ev.Note,
		},
	})
}

// Read selectors. All return copies; UI readers never write.

func (e *Engine) Orders() []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

func (e *Engine) Get(id string) (*order.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

func (e *Engine) ByStatus(st status.Status) []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ByStatus(st)
}

func (e *Engine) Pending() []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.PendingOnly()
}

func (e *Engine) Active() []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ActiveOnly()
}

func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Count()
}
