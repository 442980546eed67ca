package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool, helper: NewQueryHelper(pool)}
}

const reservationColumns = `id, resource_id, requester_id, start_date, end_date, start_time, end_time, status, reason, created_at, updated_at`

// CreateReservation inserts a new reservation record.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		reservation.ID,
		reservation.ResourceID,
		reservation.RequesterID,
		reservation.StartDate,
		reservation.EndDate,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Status,
		reservation.Reason,
		reservation.CreatedAt.UTC().Format(time.RFC3339),
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// UpdateReservation updates the status, reason, and window of a reservation.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE reservations
		SET start_date = ?, end_date = ?, start_time = ?, end_time = ?, status = ?, reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		reservation.StartDate,
		reservation.EndDate,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Status,
		reservation.Reason,
		reservation.UpdatedAt.UTC().Format(time.RFC3339),
		reservation.ID,
	)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetReservation retrieves a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, MapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter, ordered by
// window start then id. The ActiveAt cutoff keeps only windows that have not
// fully elapsed: end_date past the date, or ending on it after the time of
// day. Civil strings order lexicographically, so SQL comparison matches the
// engine.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var clauses []string
	var args []any

	if filter.ResourceID != "" {
		clauses = append(clauses, `resource_id = ?`)
		args = append(args, filter.ResourceID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.Repeat("?, ", len(filter.Statuses))
		clauses = append(clauses, `status IN (`+placeholders[:len(placeholders)-2]+`)`)
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.ActiveAt != nil {
		clauses = append(clauses, `(end_date > ? OR (end_date = ? AND end_time > ?))`)
		args = append(args, filter.ActiveAt.Date, filter.ActiveAt.Date, filter.ActiveAt.Time)
	}

	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY start_date ASC, start_time ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return reservations, nil
}

func scanReservation(scan func(...any) error) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var reason sql.NullString
	var createdAt, updatedAt string

	if err := scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.RequesterID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.StartTime,
		&reservation.EndTime,
		&reservation.Status,
		&reason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	if reason.Valid {
		value := reason.String
		reservation.Reason = &value
	}

	var err error
	if reservation.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return reservation, nil
}
