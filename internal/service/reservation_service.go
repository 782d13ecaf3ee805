package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/inventory-reservation/internal/clock"
	"github.com/iliyamo/inventory-reservation/internal/model"
	"github.com/iliyamo/inventory-reservation/internal/repository"
)

// ItemStore is the slice of the item repository the core depends on.
type ItemStore interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	TotalQuantity(ctx context.Context, id string) (int, error)
	List(ctx context.Context) ([]model.Item, error)
}

// ReservationStore is the slice of the reservation repository the core
// depends on.  The guarded mutations report whether their precondition
// (status still PENDING) matched at write time.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	SumActivePending(ctx context.Context, itemID string, now time.Time) (int, error)
	SumPending(ctx context.Context, itemID string) (int, error)
	SumConfirmed(ctx context.Context, itemID string) (int, error)
	ConfirmIfPending(ctx context.Context, id string, now time.Time) (bool, error)
	CancelIfPending(ctx context.Context, id string, now time.Time) (bool, error)
	FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error)
	ExpireByIDs(ctx context.Context, ids []string) ([]string, error)
	List(ctx context.Context, itemID, customerID string) ([]model.Reservation, error)
}

// ReservationService enforces the accounting contract: for every item,
// total_quantity >= sum of live PENDING holds plus sum of CONFIRMED
// deductions after every individual transition.  The relational store
// is the only synchronization point; all status transitions go through
// conditional updates guarded on status still being PENDING.
type ReservationService struct {
	items        ItemStore
	reservations ReservationStore
	clk          clock.Clock
	window       time.Duration
}

// DefaultReservationWindow is the hold lifetime applied when no
// override is configured.
const DefaultReservationWindow = 15 * time.Minute

// NewReservationService constructs the core around the given stores.
// A non-positive window falls back to DefaultReservationWindow.
func NewReservationService(items ItemStore, reservations ReservationStore, clk clock.Clock, window time.Duration) *ReservationService {
	if items == nil || reservations == nil || clk == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if window <= 0 {
		window = DefaultReservationWindow
	}
	return &ReservationService{
		items:        items,
		reservations: reservations,
		clk:          clk,
		window:       window,
	}
}

// CreateItem registers a new item with a fixed total quantity.  The
// name must be non-empty after trimming and the quantity non-negative;
// the handler validates shape, this revalidates the trimmed name since
// trimming happens here.
func (s *ReservationService) CreateItem(ctx context.Context, name string, totalQuantity int) (*model.Item, error) {
	it := &model.Item{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		TotalQuantity: totalQuantity,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, dbErr(err)
	}
	return it, nil
}

// GetItem returns a single item by id.
func (s *ReservationService) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err)
	}
	return it, nil
}

// ListItems returns all items, newest first.
func (s *ReservationService) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	return items, nil
}

// AvailableQuantity is the admission check: reserved counts only
// PENDING holds whose expiry is still in the future, so quantity
// returns to availability the moment a hold goes stale, before any
// sweep runs.  This is deliberately stricter than ItemStatus about
// excluding past-expiry holds; the two computations differ by call
// site and must stay separate.
func (s *ReservationService) AvailableQuantity(ctx context.Context, itemID string) (int, error) {
	total, err := s.items.TotalQuantity(ctx, itemID)
	if err != nil {
		return 0, mapItemErr(err)
	}
	now := s.clk.Now()
	reserved, err := s.reservations.SumActivePending(ctx, itemID, now)
	if err != nil {
		return 0, dbErr(err)
	}
	confirmed, err := s.reservations.SumConfirmed(ctx, itemID)
	if err != nil {
		return 0, dbErr(err)
	}
	return total - reserved - confirmed, nil
}

// ItemStatus is the status report: the per-item breakdown of total,
// available, reserved and confirmed quantities.  Reserved here counts
// every PENDING reservation regardless of expiry.
func (s *ReservationService) ItemStatus(ctx context.Context, itemID string) (*model.ItemStatus, error) {
	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, mapItemErr(err)
	}
	reserved, err := s.reservations.SumPending(ctx, itemID)
	if err != nil {
		return nil, dbErr(err)
	}
	confirmed, err := s.reservations.SumConfirmed(ctx, itemID)
	if err != nil {
		return nil, dbErr(err)
	}
	return &model.ItemStatus{
		ItemID:            it.ID,
		Name:              it.Name,
		TotalQuantity:     it.TotalQuantity,
		AvailableQuantity: it.TotalQuantity - reserved - confirmed,
		ReservedQuantity:  reserved,
		ConfirmedQuantity: confirmed,
	}, nil
}

// CreateReservation places a hold of quantity against an item.  The
// admission check and the insert are two statements, not one atomic
// operation: under heavy concurrency two creates can both pass the
// check and oversell by a narrow margin.  The store's row semantics
// bound the window; the design accepts it rather than introduce a lock.
func (s *ReservationService) CreateReservation(ctx context.Context, itemID, customerID string, quantity int) (*model.Reservation, error) {
	available, err := s.AvailableQuantity(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if available < quantity {
		return nil, &InsufficientQuantityError{Available: available, Requested: quantity}
	}
	now := s.clk.Now()
	res := &model.Reservation{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		CustomerID: customerID,
		Quantity:   quantity,
		Status:     model.StatusPending,
		ExpiresAt:  now.Add(s.window),
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, dbErr(err)
	}
	return res, nil
}

// GetReservation returns a single reservation by id.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	return res, nil
}

// ListReservations returns reservations newest first, optionally
// filtered by item and/or customer.
func (s *ReservationService) ListReservations(ctx context.Context, itemID, customerID string) ([]model.Reservation, error) {
	out, err := s.reservations.List(ctx, itemID, customerID)
	if err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}

// ConfirmReservation turns a PENDING hold into a permanent deduction.
// Confirming an already CONFIRMED reservation is an idempotent success
// returning the unchanged row.  A stale PENDING row is rejected as
// expired even if no sweep has marked it yet.  The transition itself is
// a conditional write guarded on status still PENDING; when the guard
// misses, the row is re-read and a concurrent confirmation is absorbed
// as success while any other state surfaces as a conflict.
func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	switch res.Status {
	case model.StatusConfirmed:
		return res, nil
	case model.StatusCancelled:
		return nil, ErrReservationCancelled
	case model.StatusExpired:
		return nil, ErrReservationExpired
	}
	now := s.clk.Now()
	if !res.ExpiresAt.After(now) {
		return nil, ErrReservationExpired
	}
	ok, err := s.reservations.ConfirmIfPending(ctx, id, now)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return s.confirmAfterGuardMiss(ctx, id)
	}
	res, err = s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	return res, nil
}

// confirmAfterGuardMiss resolves a lost confirm race deterministically:
// if the row is now CONFIRMED the racing request already did our work.
func (s *ReservationService) confirmAfterGuardMiss(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	if res.Status == model.StatusConfirmed {
		return res, nil
	}
	return nil, ErrReservationStateChanged
}

// CancelReservation releases a PENDING hold.  Cancelling an already
// CANCELLED reservation is an idempotent success.  A CONFIRMED
// reservation cannot be released; an EXPIRED one, or a stale PENDING
// row past its expiry, is rejected as expired.  On a guard miss the
// row is re-read: a concurrent cancel or
// expiry both leave the hold released, so either is absorbed as
// success, while a concurrent confirmation surfaces as a conflict.
func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	switch res.Status {
	case model.StatusCancelled:
		return res, nil
	case model.StatusExpired:
		return nil, ErrReservationExpired
	case model.StatusConfirmed:
		return nil, ErrReservationConfirmed
	}
	now := s.clk.Now()
	if !res.ExpiresAt.After(now) {
		return nil, ErrReservationExpired
	}
	ok, err := s.reservations.CancelIfPending(ctx, id, now)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		res, err = s.reservations.GetByID(ctx, id)
		if err != nil {
			return nil, mapReservationErr(err)
		}
		if res.Status == model.StatusCancelled || res.Status == model.StatusExpired {
			return res, nil
		}
		return nil, ErrReservationConfirmed
	}
	res, err = s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapReservationErr(err)
	}
	return res, nil
}

// SweepResult reports one run of the expiry sweep.
type SweepResult struct {
	ExpiredCount   int      `json:"expired_count"`
	ReservationIDs []string `json:"reservation_ids"`
}

// ExpireReservations batch-transitions every stale PENDING reservation
// to EXPIRED.  The bulk update is guarded by status still PENDING, so
// a hold confirmed or cancelled between selection and the write is
// silently excluded; the result reports only rows actually
// transitioned.  There is no internal retry: any store failure
// surfaces immediately as a database error.
func (s *ReservationService) ExpireReservations(ctx context.Context) (*SweepResult, error) {
	now := s.clk.Now()
	ids, err := s.reservations.FindExpiredIDs(ctx, now)
	if err != nil {
		return nil, dbErr(err)
	}
	if len(ids) == 0 {
		return &SweepResult{ExpiredCount: 0, ReservationIDs: []string{}}, nil
	}
	expired, err := s.reservations.ExpireByIDs(ctx, ids)
	if err != nil {
		return nil, dbErr(err)
	}
	return &SweepResult{ExpiredCount: len(expired), ReservationIDs: expired}, nil
}

// mapItemErr converts the repository's not-found sentinel for item
// lookups into the service taxonomy, wrapping anything else as a
// database failure.
func mapItemErr(err error) error {
	if errors.Is(err, repository.ErrItemNotFound) {
		return ErrItemNotFound
	}
	return dbErr(err)
}

func mapReservationErr(err error) error {
	if errors.Is(err, repository.ErrReservationNotFound) {
		return ErrReservationNotFound
	}
	return dbErr(err)
}
