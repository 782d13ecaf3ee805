package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/inventory-reservation/internal/clock"
	"github.com/iliyamo/inventory-reservation/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const testWindow = 15 * time.Minute

func newTestService(t *testing.T) (*ReservationService, *fakeItemStore, *fakeReservationStore, *clock.Fixed) {
	t.Helper()
	items := newFakeItemStore()
	reservations := newFakeReservationStore()
	clk := clock.NewFixed(testNow)
	svc := NewReservationService(items, reservations, clk, testWindow)
	return svc, items, reservations, clk
}

func mustCreateItem(t *testing.T, svc *ReservationService, name string, total int) *model.Item {
	t.Helper()
	it, err := svc.CreateItem(context.Background(), name, total)
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	return it
}

func TestCreateItem(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newTestService(t)

	it := mustCreateItem(t, svc, "  Widget  ", 10)
	if it.ID == "" {
		t.Fatalf("expected generated item id")
	}
	if it.Name != "Widget" {
		t.Fatalf("expected trimmed name %q, got %q", "Widget", it.Name)
	}
	if it.TotalQuantity != 10 {
		t.Fatalf("expected total 10, got %d", it.TotalQuantity)
	}
}

func TestAvailabilityComputations(t *testing.T) {
	t.Parallel()
	svc, _, reservations, _ := newTestService(t)
	it := mustCreateItem(t, svc, "Widget", 10)

	// One live hold, one stale hold, one confirmed deduction.
	reservations.put(model.Reservation{
		ID: "live", ItemID: it.ID, CustomerID: "c1", Quantity: 3,
		Status: model.StatusPending, ExpiresAt: testNow.Add(5 * time.Minute),
	})
	reservations.put(model.Reservation{
		ID: "stale", ItemID: it.ID, CustomerID: "c2", Quantity: 4,
		Status: model.StatusPending, ExpiresAt: testNow.Add(-1 * time.Minute),
	})
	reservations.put(model.Reservation{
		ID: "done", ItemID: it.ID, CustomerID: "c3", Quantity: 2,
		Status: model.StatusConfirmed,
	})

	t.Run("admission check excludes stale holds", func(t *testing.T) {
		available, err := svc.AvailableQuantity(context.Background(), it.ID)
		if err != nil {
			t.Fatalf("available quantity: %v", err)
		}
		// 10 total - 3 live - 2 confirmed; the stale 4 does not count.
		if available != 5 {
			t.Fatalf("expected available 5, got %d", available)
		}
	})

	t.Run("status report counts all pending holds", func(t *testing.T) {
		st, err := svc.ItemStatus(context.Background(), it.ID)
		if err != nil {
			t.Fatalf("item status: %v", err)
		}
		if st.ReservedQuantity != 7 {
			t.Fatalf("expected reserved 7 (live + stale), got %d", st.ReservedQuantity)
		}
		if st.ConfirmedQuantity != 2 {
			t.Fatalf("expected confirmed 2, got %d", st.ConfirmedQuantity)
		}
		if st.AvailableQuantity != 1 {
			t.Fatalf("expected available 1, got %d", st.AvailableQuantity)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		if _, err := svc.AvailableQuantity(context.Background(), "missing"); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
		if _, err := svc.ItemStatus(context.Background(), "missing"); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestCreateReservation(t *testing.T) {
	t.Parallel()

	t.Run("creates pending hold with computed expiry", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 5)

		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 2)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected generated reservation id")
		}
		if res.Status != model.StatusPending {
			t.Fatalf("expected status PENDING, got %s", res.Status)
		}
		if !res.ExpiresAt.Equal(testNow.Add(testWindow)) {
			t.Fatalf("expected expiry %v, got %v", testNow.Add(testWindow), res.ExpiresAt)
		}
	})

	t.Run("full hold blocks a second reservation", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 2)

		if _, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 2); err != nil {
			t.Fatalf("first reservation: %v", err)
		}
		_, err := svc.CreateReservation(context.Background(), it.ID, "cust-2", 1)
		var insufficient *InsufficientQuantityError
		if !errors.As(err, &insufficient) {
			t.Fatalf("expected InsufficientQuantityError, got %v", err)
		}
		if insufficient.Available != 0 || insufficient.Requested != 1 {
			t.Fatalf("expected available=0 requested=1, got %+v", insufficient)
		}
	})

	t.Run("expired hold frees quantity without a sweep", func(t *testing.T) {
		svc, _, reservations, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 2)

		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 2)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		clk.Advance(testWindow + time.Second)

		got, err := svc.CreateReservation(context.Background(), it.ID, "cust-2", 2)
		if err != nil {
			t.Fatalf("expected stale hold to free quantity, got %v", err)
		}
		if got.ID == res.ID {
			t.Fatalf("expected a new reservation")
		}
		if reservations.reservations[res.ID].Status != model.StatusPending {
			t.Fatalf("stale hold should remain PENDING until the sweep runs")
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		if _, err := svc.CreateReservation(context.Background(), "missing", "cust-1", 1); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestConfirmReservation(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*ReservationService, *fakeReservationStore, *model.Reservation, *clock.Fixed) {
		svc, _, reservations, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 5)
		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 1)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		return svc, reservations, res, clk
	}

	t.Run("confirms a pending hold", func(t *testing.T) {
		svc, _, res, _ := setup(t)
		got, err := svc.ConfirmReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if got.Status != model.StatusConfirmed {
			t.Fatalf("expected CONFIRMED, got %s", got.Status)
		}
		if got.ConfirmedAt == nil || !got.ConfirmedAt.Equal(testNow) {
			t.Fatalf("expected confirmed_at %v, got %v", testNow, got.ConfirmedAt)
		}
	})

	t.Run("repeat confirm is idempotent", func(t *testing.T) {
		svc, _, res, clk := setup(t)
		first, err := svc.ConfirmReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		clk.Advance(time.Minute)
		second, err := svc.ConfirmReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("second confirm: %v", err)
		}
		if !second.ConfirmedAt.Equal(*first.ConfirmedAt) {
			t.Fatalf("confirmed_at changed on repeat confirm: %v vs %v", first.ConfirmedAt, second.ConfirmedAt)
		}
	})

	t.Run("cancelled hold cannot be confirmed", func(t *testing.T) {
		svc, _, res, _ := setup(t)
		if _, err := svc.CancelReservation(context.Background(), res.ID); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if _, err := svc.ConfirmReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationCancelled) {
			t.Fatalf("expected ErrReservationCancelled, got %v", err)
		}
	})

	t.Run("stale pending hold is rejected before any sweep", func(t *testing.T) {
		svc, _, res, clk := setup(t)
		clk.Advance(testWindow + time.Second)
		if _, err := svc.ConfirmReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationExpired) {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
	})

	t.Run("expired status is rejected", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		reservations.reservations[res.ID].Status = model.StatusExpired
		if _, err := svc.ConfirmReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationExpired) {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
	})

	t.Run("guard miss against concurrent confirm is absorbed", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		winner := testNow.Add(-time.Second)
		reservations.beforeConfirm = func() {
			row := reservations.reservations[res.ID]
			row.Status = model.StatusConfirmed
			row.ConfirmedAt = &winner
		}
		got, err := svc.ConfirmReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("expected idempotent success after lost race, got %v", err)
		}
		if !got.ConfirmedAt.Equal(winner) {
			t.Fatalf("expected the racing confirmation's timestamp, got %v", got.ConfirmedAt)
		}
	})

	t.Run("guard miss against concurrent cancel is a conflict", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		reservations.beforeConfirm = func() {
			reservations.reservations[res.ID].Status = model.StatusCancelled
		}
		if _, err := svc.ConfirmReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationStateChanged) {
			t.Fatalf("expected ErrReservationStateChanged, got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		if _, err := svc.ConfirmReservation(context.Background(), "missing"); !errors.Is(err, ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}

func TestCancelReservation(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*ReservationService, *fakeReservationStore, *model.Reservation, *clock.Fixed) {
		svc, _, reservations, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 5)
		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 1)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		return svc, reservations, res, clk
	}

	t.Run("cancels a pending hold", func(t *testing.T) {
		svc, _, res, _ := setup(t)
		got, err := svc.CancelReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if got.Status != model.StatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", got.Status)
		}
		if got.CancelledAt == nil {
			t.Fatalf("expected cancelled_at to be set")
		}
		if got.ConfirmedAt != nil {
			t.Fatalf("cancelled hold must not carry confirmed_at")
		}
	})

	t.Run("repeat cancel is idempotent", func(t *testing.T) {
		svc, _, res, _ := setup(t)
		first, err := svc.CancelReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("first cancel: %v", err)
		}
		second, err := svc.CancelReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("second cancel: %v", err)
		}
		if !second.CancelledAt.Equal(*first.CancelledAt) {
			t.Fatalf("cancelled_at changed on repeat cancel")
		}
	})

	t.Run("confirmed hold is permanent", func(t *testing.T) {
		svc, _, res, _ := setup(t)
		if _, err := svc.ConfirmReservation(context.Background(), res.ID); err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if _, err := svc.CancelReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationConfirmed) {
			t.Fatalf("expected ErrReservationConfirmed, got %v", err)
		}
	})

	t.Run("expired status is rejected", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		reservations.reservations[res.ID].Status = model.StatusExpired
		if _, err := svc.CancelReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationExpired) {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
	})

	t.Run("stale pending hold is rejected before any sweep", func(t *testing.T) {
		svc, _, res, clk := setup(t)
		clk.Advance(testWindow + time.Second)
		if _, err := svc.CancelReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationExpired) {
			t.Fatalf("expected ErrReservationExpired, got %v", err)
		}
	})

	t.Run("guard miss against concurrent expiry is absorbed", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		reservations.beforeCancel = func() {
			reservations.reservations[res.ID].Status = model.StatusExpired
		}
		got, err := svc.CancelReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("expected success after concurrent expiry, got %v", err)
		}
		if got.Status != model.StatusExpired {
			t.Fatalf("expected re-read EXPIRED row, got %s", got.Status)
		}
	})

	t.Run("guard miss against concurrent confirm is a conflict", func(t *testing.T) {
		svc, reservations, res, _ := setup(t)
		reservations.beforeCancel = func() {
			reservations.reservations[res.ID].Status = model.StatusConfirmed
		}
		if _, err := svc.CancelReservation(context.Background(), res.ID); !errors.Is(err, ErrReservationConfirmed) {
			t.Fatalf("expected ErrReservationConfirmed, got %v", err)
		}
	})
}

func TestExpireReservations(t *testing.T) {
	t.Parallel()

	t.Run("nothing to sweep", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		result, err := svc.ExpireReservations(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.ExpiredCount != 0 || len(result.ReservationIDs) != 0 {
			t.Fatalf("expected empty result, got %+v", result)
		}
	})

	t.Run("sweeps stale holds and restores availability", func(t *testing.T) {
		svc, _, reservations, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 2)
		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 2)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		clk.Advance(testWindow + time.Second)

		result, err := svc.ExpireReservations(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.ExpiredCount != 1 || len(result.ReservationIDs) != 1 || result.ReservationIDs[0] != res.ID {
			t.Fatalf("expected the stale hold in the sweep result, got %+v", result)
		}
		got, err := svc.GetReservation(context.Background(), res.ID)
		if err != nil {
			t.Fatalf("get reservation: %v", err)
		}
		if got.Status != model.StatusExpired {
			t.Fatalf("expected EXPIRED after sweep, got %s", got.Status)
		}
		available, err := svc.AvailableQuantity(context.Background(), it.ID)
		if err != nil {
			t.Fatalf("available quantity: %v", err)
		}
		if available != it.TotalQuantity {
			t.Fatalf("expected full availability restored, got %d", available)
		}
		if reservations.reservations[res.ID].Status != model.StatusExpired {
			t.Fatalf("sweep must persist the EXPIRED status")
		}
	})

	t.Run("second sweep reports nothing", func(t *testing.T) {
		svc, _, _, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 1)
		if _, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 1); err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		clk.Advance(testWindow + time.Second)
		if _, err := svc.ExpireReservations(context.Background()); err != nil {
			t.Fatalf("first sweep: %v", err)
		}
		result, err := svc.ExpireReservations(context.Background())
		if err != nil {
			t.Fatalf("second sweep: %v", err)
		}
		if result.ExpiredCount != 0 {
			t.Fatalf("expected zero-count second sweep, got %+v", result)
		}
	})

	t.Run("row confirmed between select and write is excluded", func(t *testing.T) {
		svc, _, reservations, clk := newTestService(t)
		it := mustCreateItem(t, svc, "Widget", 3)
		res, err := svc.CreateReservation(context.Background(), it.ID, "cust-1", 1)
		if err != nil {
			t.Fatalf("create reservation: %v", err)
		}
		clk.Advance(testWindow + time.Second)
		reservations.beforeExpire = func() {
			reservations.reservations[res.ID].Status = model.StatusConfirmed
		}
		result, err := svc.ExpireReservations(context.Background())
		if err != nil {
			t.Fatalf("sweep: %v", err)
		}
		if result.ExpiredCount != 0 || len(result.ReservationIDs) != 0 {
			t.Fatalf("concurrently confirmed row must not be reported expired, got %+v", result)
		}
		if reservations.reservations[res.ID].Status != model.StatusConfirmed {
			t.Fatalf("sweep must not overwrite a concurrent confirmation")
		}
	})
}

func TestAccountingInvariant(t *testing.T) {
	t.Parallel()
	svc, _, reservations, clk := newTestService(t)
	it := mustCreateItem(t, svc, "Widget", 10)

	check := func(label string) {
		t.Helper()
		live, _ := reservations.SumActivePending(context.Background(), it.ID, clk.Now())
		confirmed, _ := reservations.SumConfirmed(context.Background(), it.ID)
		if live+confirmed > it.TotalQuantity {
			t.Fatalf("%s: invariant violated: live %d + confirmed %d > total %d", label, live, confirmed, it.TotalQuantity)
		}
	}

	var held []string
	for i := 0; i < 5; i++ {
		res, err := svc.CreateReservation(context.Background(), it.ID, "cust", 2)
		if err != nil {
			var insufficient *InsufficientQuantityError
			if !errors.As(err, &insufficient) {
				t.Fatalf("unexpected create failure: %v", err)
			}
			break
		}
		held = append(held, res.ID)
		check("after create")
	}
	if _, err := svc.CreateReservation(context.Background(), it.ID, "cust", 1); err == nil {
		t.Fatalf("expected item to be fully held")
	}
	for i, id := range held {
		if i%2 == 0 {
			if _, err := svc.ConfirmReservation(context.Background(), id); err != nil {
				t.Fatalf("confirm %s: %v", id, err)
			}
		} else {
			if _, err := svc.CancelReservation(context.Background(), id); err != nil {
				t.Fatalf("cancel %s: %v", id, err)
			}
		}
		check("after transition")
	}
}

func TestDatabaseErrorsAreWrapped(t *testing.T) {
	t.Parallel()
	svc, items, reservations, _ := newTestService(t)
	it := mustCreateItem(t, svc, "Widget", 5)

	boom := errors.New("connection reset")
	items.failWith = boom
	if _, err := svc.AvailableQuantity(context.Background(), it.ID); !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase, got %v", err)
	}
	items.failWith = nil

	reservations.failWith = boom
	if _, err := svc.ExpireReservations(context.Background()); !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase, got %v", err)
	}
	if _, err := svc.ListReservations(context.Background(), "", ""); !errors.Is(err, ErrDatabase) {
		t.Fatalf("expected ErrDatabase, got %v", err)
	}
}
