package order

import (
	"sort"
	"time"

	"github.com/MikeMC777/pedidos-live/internal/status"
)

// Store holds the known orders for one scope (a business or a user),
// keyed by id. It has no locking of its own: the synchronization engine
// is the sole writer and serializes access.
type Store struct {
	byID map[string]*Order
	// sorted caches the reverse-chronological view; nil after a mutation.
	sorted []*Order
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*Order)}
}

// Upsert inserts or fully replaces the order at o.ID. The store keeps its
// own copy, so the caller may keep mutating o.
func (s *Store) Upsert(o *Order) {
	s.byID[o.ID] = o.Clone()
	s.sorted = nil
}

// Patch carries the fields a partial update may touch.
type Patch struct {
	Status        *status.Status
	UpdatedAt     *time.Time
	AppendHistory *HistoryEntry
}

// Patch merges the set fields into the existing order. It reports false
// when the id is unknown.
func (s *Store) Patch(id string, p Patch) bool {
	o, ok := s.byID[id]
	if !ok {
		return false
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
	if p.AppendHistory != nil {
		o.StatusHistory = append(o.StatusHistory, *p.AppendHistory)
	}
	s.sorted = nil
	return true
}

// Get returns a copy of the order at id.
func (s *Store) Get(id string) (*Order, bool) {
	o, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Remove deletes the order at id. Normal lifecycle never deletes confirmed
// orders; this exists for scope teardown.
func (s *Store) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	s.sorted = nil
	return true
}

// Clear empties the store (scope change or full reload).
func (s *Store) Clear() {
	s.byID = make(map[string]*Order)
	s.sorted = nil
}

func (s *Store) Count() int { return len(s.byID) }

// All returns copies of every order, newest first.
func (s *Store) All() []*Order {
	if s.sorted == nil {
		s.sorted = make([]*Order, 0, len(s.byID))
		for _, o := range s.byID {
			s.sorted = append(s.sorted, o)
		}
		sort.Slice(s.sorted, func(i, j int) bool {
			if !s.sorted[i].CreatedAt.Equal(s.sorted[j].CreatedAt) {
				return s.sorted[i].CreatedAt.After(s.sorted[j].CreatedAt)
			}
			return s.sorted[i].ID < s.sorted[j].ID
		})
	}
	out := make([]*Order, len(s.sorted))
	for i, o := range s.sorted {
		out[i] = o.Clone()
	}
	return out
}

// ByStatus returns the orders currently at st, newest first.
func (s *Store) ByStatus(st status.Status) []*Order {
	return s.filter(func(o *Order) bool { return o.Status == st })
}

// PendingOnly returns the orders awaiting acceptance.
func (s *Store) PendingOnly() []*Order {
	return s.ByStatus(status.Pending)
}

// ActiveOnly returns every order that is not terminal.
func (s *Store) ActiveOnly() []*Order {
	return s.filter(func(o *Order) bool { return !status.IsTerminal(o.Status) })
}

func (s *Store) filter(keep func(*Order) bool) []*Order {
	all := s.All()
	out := all[:0]
	for _, o := range all {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
