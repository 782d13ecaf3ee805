package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/inventory-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.
// Status transitions go through the guarded update methods only; no
// other code path writes the status column unconditionally.  The guard
// (status still PENDING at write time) is the system's sole mutual
// exclusion mechanism, so every mutation here reports whether its
// precondition matched.  All timestamps are stored and compared in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a new PENDING reservation and reads it back to
// populate database-assigned timestamps.  The caller supplies the
// generated ID and the computed expiry.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, item_id, customer_id, quantity, status, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.ItemID, res.CustomerID, res.Quantity, res.Status, res.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, res.ID)
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID returns a single reservation.  ErrReservationNotFound is
// returned when no row exists for the given id.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, item_id, customer_id, quantity, status, expires_at,
	                  confirmed_at, cancelled_at, created_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	var confirmedAt, cancelledAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.ItemID, &res.CustomerID, &res.Quantity, &res.Status,
		&res.ExpiresAt, &confirmedAt, &cancelledAt, &res.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.ExpiresAt = res.ExpiresAt.UTC()
	res.CreatedAt = res.CreatedAt.UTC()
	if confirmedAt.Valid {
		t := confirmedAt.Time.UTC()
		res.ConfirmedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		res.CancelledAt = &t
	}
	return &res, nil
}

// SumActivePending returns the summed quantity of PENDING reservations
// for an item whose expiry is strictly in the future.  This is the
// "reserved" figure used by the admission check before creating a new
// reservation: a stale PENDING hold no longer counts against
// availability even before the sweep marks it EXPIRED.
func (r *ReservationRepo) SumActivePending(ctx context.Context, itemID string, now time.Time) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM reservations
	           WHERE item_id = ? AND status = ? AND expires_at > ?`
	var sum int
	err := r.db.QueryRowContext(ctx, q, itemID, model.StatusPending, now.UTC()).Scan(&sum)
	return sum, err
}

// SumPending returns the summed quantity of all PENDING reservations
// for an item regardless of expiry.  This is the "reserved" figure
// shown by the status report.  It is deliberately a separate query
// from SumActivePending; the two computations differ by call site and
// must not be unified.
func (r *ReservationRepo) SumPending(ctx context.Context, itemID string) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM reservations
	           WHERE item_id = ? AND status = ?`
	var sum int
	err := r.db.QueryRowContext(ctx, q, itemID, model.StatusPending).Scan(&sum)
	return sum, err
}

// SumConfirmed returns the summed quantity of CONFIRMED reservations
// for an item.  Confirmed holds are permanent deductions.
func (r *ReservationRepo) SumConfirmed(ctx context.Context, itemID string) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM reservations
	           WHERE item_id = ? AND status = ?`
	var sum int
	err := r.db.QueryRowContext(ctx, q, itemID, model.StatusConfirmed).Scan(&sum)
	return sum, err
}

// ConfirmIfPending sets status to CONFIRMED and stamps confirmed_at,
// guarded by the row still being PENDING at write time.  It returns
// true when the guard matched.  A false return means a concurrent
// transition won the race; the caller decides the outcome by
// re-reading the row.
func (r *ReservationRepo) ConfirmIfPending(ctx context.Context, id string, now time.Time) (bool, error) {
	const q = `UPDATE reservations SET status = ?, confirmed_at = ?
	           WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, model.StatusConfirmed, now.UTC(), id, model.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CancelIfPending sets status to CANCELLED and stamps cancelled_at,
// guarded by the row still being PENDING at write time.  It returns
// true when the guard matched.
func (r *ReservationRepo) CancelIfPending(ctx context.Context, id string, now time.Time) (bool, error) {
	const q = `UPDATE reservations SET status = ?, cancelled_at = ?
	           WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, model.StatusCancelled, now.UTC(), id, model.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FindExpiredIDs returns the ids of every PENDING reservation whose
// expiry is strictly before now.  The composite (status, expires_at)
// index serves this query.
func (r *ReservationRepo) FindExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	const q = `SELECT id FROM reservations WHERE status = ? AND expires_at < ?`
	rows, err := r.db.QueryContext(ctx, q, model.StatusPending, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpireByIDs sets status to EXPIRED for the given ids, additionally
// guarded by status still being PENDING.  Rows that were confirmed or
// cancelled between selection and this write are silently excluded.
// It returns the ids actually transitioned, determined by re-selecting
// EXPIRED rows among the candidates, so callers never report a row as
// expired that a concurrent transition claimed first.  Passing an
// empty slice returns an empty slice and touches nothing.
func (r *ReservationRepo) ExpireByIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, model.StatusExpired)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, model.StatusPending)
	query := `UPDATE reservations SET status = ? WHERE id IN (` + placeholders + `) AND status = ?`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	// Re-select to report only rows this sweep (or a concurrent one)
	// actually moved to EXPIRED.
	selArgs := make([]interface{}, 0, len(ids)+1)
	for _, id := range ids {
		selArgs = append(selArgs, id)
	}
	selArgs = append(selArgs, model.StatusExpired)
	sel := `SELECT id FROM reservations WHERE id IN (` + placeholders + `) AND status = ?`
	rows, err := r.db.QueryContext(ctx, sel, selArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	expired := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		expired = append(expired, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expired, nil
}

// List returns all reservations ordered by creation time descending.
// When itemID or customerID is non-empty the result is filtered
// accordingly; both filters may be combined.
func (r *ReservationRepo) List(ctx context.Context, itemID, customerID string) ([]model.Reservation, error) {
	query := `SELECT id, item_id, customer_id, quantity, status, expires_at,
	                 confirmed_at, cancelled_at, created_at
	          FROM reservations`
	var conds []string
	var args []interface{}
	if itemID != "" {
		conds = append(conds, "item_id = ?")
		args = append(args, itemID)
	}
	if customerID != "" {
		conds = append(conds, "customer_id = ?")
		args = append(args, customerID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		var confirmedAt, cancelledAt sql.NullTime
		if err := rows.Scan(
			&res.ID, &res.ItemID, &res.CustomerID, &res.Quantity, &res.Status,
			&res.ExpiresAt, &confirmedAt, &cancelledAt, &res.CreatedAt,
		); err != nil {
			return nil, err
		}
		res.ExpiresAt = res.ExpiresAt.UTC()
		res.CreatedAt = res.CreatedAt.UTC()
		if confirmedAt.Valid {
			t := confirmedAt.Time.UTC()
			res.ConfirmedAt = &t
		}
		if cancelledAt.Valid {
			t := cancelledAt.Time.UTC()
			res.CancelledAt = &t
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
