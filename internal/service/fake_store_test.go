package service_test

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/repository"
)

// fakeStore is an in-memory stand-in for postgres.Store. WithinTx serializes
// transactions and restores a snapshot when fn fails, so rollback behaviour
// is observable from tests.
type fakeStore struct {
	mu        sync.Mutex
	items     map[int32]domain.Item
	allocs    map[int32]domain.Allocation
	nextID    int32
	commits   int
	rollbacks int

	// Fault injection. Checked inside transactions only.
	failApplyDelta error
	failCreate     error
}

func newFakeStore(items ...domain.Item) *fakeStore {
	s := &fakeStore{
		items:  map[int32]domain.Item{},
		allocs: map[int32]domain.Allocation{},
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := maps.Clone(s.items)
	allocs := maps.Clone(s.allocs)
	nextID := s.nextID

	repos := repository.TxRepositories{
		Items:       &fakeItems{s: s, inTx: true},
		Allocations: &fakeAllocations{s: s, inTx: true},
	}
	if err := fn(ctx, repos); err != nil {
		s.items, s.allocs, s.nextID = items, allocs, nextID
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *fakeStore) itemRepo() *fakeItems { return &fakeItems{s: s} }

func (s *fakeStore) allocationRepo() *fakeAllocations { return &fakeAllocations{s: s} }

func (s *fakeStore) stock(itemID int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID].StockLevel
}

func (s *fakeStore) allocationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.allocs)
}

func (s *fakeStore) activeQuantity(itemID int32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int32
	for _, a := range s.allocs {
		if a.ItemID == itemID {
			sum += a.ActiveQuantity()
		}
	}
	return sum
}

func (s *fakeStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type fakeItems struct {
	s    *fakeStore
	inTx bool
}

func (r *fakeItems) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	defer r.s.lock(r.inTx)()
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

func (r *fakeItems) ApplyStockDelta(ctx context.Context, id int32, delta int32) (*domain.Item, error) {
	defer r.s.lock(r.inTx)()
	if r.inTx && r.s.failApplyDelta != nil {
		return nil, r.s.failApplyDelta
	}
	it, ok := r.s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if it.StockLevel+delta < 0 {
		return nil, &domain.InsufficientStockError{ItemID: id, ItemName: it.Name, Available: it.StockLevel, Requested: -delta}
	}
	it.StockLevel += delta
	it.UpdatedAt = time.Now().UTC()
	r.s.items[id] = it
	return &it, nil
}

func (r *fakeItems) ListLowStock(ctx context.Context) ([]domain.Item, error) {
	defer r.s.lock(r.inTx)()
	var out []domain.Item
	for _, id := range slices.Sorted(maps.Keys(r.s.items)) {
		it := r.s.items[id]
		if it.IsActive && it.AtOrBelowThreshold() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeItems) Upsert(ctx context.Context, it *domain.Item) error {
	defer r.s.lock(r.inTx)()
	r.s.items[it.ID] = *it
	return nil
}

type fakeAllocations struct {
	s    *fakeStore
	inTx bool
}

func (r *fakeAllocations) Create(ctx context.Context, a *domain.Allocation) error {
	defer r.s.lock(r.inTx)()
	if r.inTx && r.s.failCreate != nil {
		return r.s.failCreate
	}
	r.s.nextID++
	a.ID = r.s.nextID
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.s.allocs[a.ID] = *a
	return nil
}

func (r *fakeAllocations) GetByID(ctx context.Context, id int32) (*domain.Allocation, error) {
	defer r.s.lock(r.inTx)()
	a, ok := r.s.allocs[id]
	if !ok {
		return nil, domain.ErrAllocationNotFound
	}
	return &a, nil
}

func (r *fakeAllocations) GetForUpdate(ctx context.Context, id int32) (*domain.Allocation, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAllocations) Update(ctx context.Context, a *domain.Allocation) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.allocs[a.ID]; !ok {
		return domain.ErrAllocationNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.s.allocs[a.ID] = *a
	return nil
}

func (r *fakeAllocations) Delete(ctx context.Context, id int32) (int64, error) {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.allocs[id]; !ok {
		return 0, nil
	}
	delete(r.s.allocs, id)
	return 1, nil
}

func (r *fakeAllocations) GetView(ctx context.Context, id int32) (*domain.AllocationView, error) {
	defer r.s.lock(r.inTx)()
	a, ok := r.s.allocs[id]
	if !ok {
		return nil, domain.ErrAllocationNotFound
	}
	it := r.s.items[a.ItemID]
	return &domain.AllocationView{
		Allocation: a,
		Item:       domain.ItemSummary{ID: it.ID, Name: it.Name, MinimumThreshold: it.MinimumThreshold, StockLevel: it.StockLevel},
	}, nil
}

func (r *fakeAllocations) List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error) {
	panic("not used by service tests")
}
