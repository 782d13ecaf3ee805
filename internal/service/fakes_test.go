package service

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/inventory-reservation/internal/model"
	"github.com/iliyamo/inventory-reservation/internal/repository"
)

// fakeItemStore is an in-memory ItemStore.  Setting failWith makes
// every call return that error, for exercising the database-error path.
type fakeItemStore struct {
	items    map[string]*model.Item
	seq      int
	failWith error
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string]*model.Item)}
}

func (f *fakeItemStore) Create(ctx context.Context, it *model.Item) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.seq++
	it.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
	it.UpdatedAt = it.CreatedAt
	cp := *it
	f.items[it.ID] = &cp
	return nil
}

func (f *fakeItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	it, ok := f.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeItemStore) TotalQuantity(ctx context.Context, id string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	it, ok := f.items[id]
	if !ok {
		return 0, repository.ErrItemNotFound
	}
	return it.TotalQuantity, nil
}

func (f *fakeItemStore) List(ctx context.Context) ([]model.Item, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// fakeReservationStore is an in-memory ReservationStore whose guarded
// mutations honour the status-still-PENDING precondition.  The
// beforeConfirm/beforeCancel/beforeExpire hooks run before the guard is
// evaluated, letting tests interleave a concurrent transition.
type fakeReservationStore struct {
	reservations map[string]*model.Reservation
	seq          int
	failWith     error

	beforeConfirm func()
	beforeCancel  func()
	beforeExpire  func()
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{reservations: make(map[string]*model.Reservation)}
}

func (f *fakeReservationStore) put(res model.Reservation) {
	f.seq++
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Second)
	}
	f.reservations[res.ID] = &res
}

func (f *fakeReservationStore) Create(ctx context.Context, res *model.Reservation) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.put(*res)
	*res = *f.reservations[res.ID]
	return nil
}

func (f *fakeReservationStore) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	res, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservationStore) SumActivePending(ctx context.Context, itemID string, now time.Time) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	sum := 0
	for _, res := range f.reservations {
		if res.ItemID == itemID && res.Status == model.StatusPending && res.ExpiresAt.After(now) {
			sum += res.Quantity
		}
	}
	return sum, nil
}

func (f *fakeReservationStore) SumPending(ctx context.Context, itemID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	sum := 0
	for _, res := range f.reservations {
		if res.ItemID == itemID && res.Status == model.StatusPending {
			sum += res.Quantity
		}
	}
	return sum, nil
}

func (f *fakeReservationStore) SumConfirmed(ctx context.Context, itemID string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	sum := 0
	for _, res := range f.reservations {
		if res.ItemID == itemID && res.Status == model.StatusConfirmed {
			sum += res.Quantity
		}
	}
	return sum, nil
}

func (f *fakeReservationStore) ConfirmIfPending(ctx context.Context, id string, now time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if f.beforeConfirm != nil {
		f.beforeConfirm()
	}
	res, ok := f.reservations[id]
	if !ok || res.Status != model.StatusPending {
		return false, nil
	}
	t := now.UTC()
	res.Status = model.StatusConfirmed
	res.ConfirmedAt = &t
	return true, nil
}

func (f *fakeReservationStore) CancelIfPending(ctx context.Context, id string, now time.Time) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	if f.beforeCancel != nil {
		f.beforeCancel()
	}
	res, ok := f.reservations[id]
	if !ok || res.Status != model.StatusPending {
		return false, nil
	}
	t := now.UTC()
	res.Status = model.StatusCancelled
	res.CancelledAt = &t
	return true, nil
}

func (f *fakeReservationStore) FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var ids []string
	for _, res := range f.reservations {
		if res.Status == model.StatusPending && res.ExpiresAt.Before(now) {
			ids = append(ids, res.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeReservationStore) ExpireByIDs(ctx context.Context, ids []string) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.beforeExpire != nil {
		f.beforeExpire()
	}
	expired := make([]string, 0, len(ids))
	for _, id := range ids {
		res, ok := f.reservations[id]
		if !ok {
			continue
		}
		if res.Status == model.StatusPending {
			res.Status = model.StatusExpired
		}
		if res.Status == model.StatusExpired {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

func (f *fakeReservationStore) List(ctx context.Context, itemID, customerID string) ([]model.Reservation, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Reservation, 0)
	for _, res := range f.reservations {
		if itemID != "" && res.ItemID != itemID {
			continue
		}
		if customerID != "" && res.CustomerID != customerID {
			continue
		}
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
