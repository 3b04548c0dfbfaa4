package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

type TripRepository struct {
	db Querier
}

const tripColumns = `id, title, origin, destination, description, departure_at, return_at,
	price_per_seat, advance_per_seat, total_seats, available_seats, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Origin,
		&t.Destination,
		&t.Description,
		&t.DepartureAt,
		&t.ReturnAt,
		&t.PricePerSeat,
		&t.AdvancePerSeat,
		&t.TotalSeats,
		&t.AvailableSeats,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (title, origin, destination, description, departure_at, return_at,
		                   price_per_seat, advance_per_seat, total_seats, available_seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		trip.Title,
		trip.Origin,
		trip.Destination,
		trip.Description,
		trip.DepartureAt,
		trip.ReturnAt,
		trip.PricePerSeat,
		trip.AdvancePerSeat,
		trip.TotalSeats,
		trip.AvailableSeats,
		trip.Status,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return apperrors.NewValidationError("trip", "violates seat or price constraints")
		}
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "trip", id)
	}
	return trip, nil
}

// GetForUpdate locks the trip row until the surrounding transaction ends
func (r *TripRepository) GetForUpdate(ctx context.Context, id int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "trip", id)
	}
	return trip, nil
}

// ReserveSeats atomically takes count seats from an open trip. It returns
// false when no row matched: the trip is missing, closed or lacks seats.
// The caller decides which by re-reading the trip.
func (r *TripRepository) ReserveSeats(ctx context.Context, id int64, count int) (*models.Trip, bool, error) {
	query := `
		UPDATE trips
		SET available_seats = available_seats - $2,
		    status = CASE WHEN available_seats - $2 = 0 THEN 'FULL' ELSE 'UPCOMING' END,
		    updated_at = NOW()
		WHERE id = $1
		  AND status IN ('UPCOMING', 'FULL')
		  AND available_seats >= $2
		RETURNING ` + tripColumns

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, id, count))
	if err != nil {
		if apperrors.IsNotFound(notFound(err, "trip", id)) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to reserve seats: %w", err)
	}
	return trip, true, nil
}

// SaveInventory writes seat counters and status computed from a locked snapshot
func (r *TripRepository) SaveInventory(ctx context.Context, trip *models.Trip) error {
	query := `
		UPDATE trips
		SET total_seats = $2, available_seats = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, trip.ID, trip.TotalSeats, trip.AvailableSeats, trip.Status).Scan(&trip.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqCheckViolation {
			return apperrors.NewValidationError("available_seats", "must be between 0 and total_seats")
		}
		return notFound(err, "trip", trip.ID)
	}
	return nil
}

// TripFilter - фильтр для выборки поездок из Postgres
type TripFilter struct {
	Query  string
	Date   string
	Status models.TripStatus
	Limit  int
	Offset int
}

func (f TripFilter) where() (string, []any) {
	var conds []string
	var args []any

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR destination ILIKE $%d OR origin ILIKE $%d)", n, n, n))
	}
	if f.Date != "" {
		args = append(args, f.Date)
		conds = append(conds, fmt.Sprintf("DATE(departure_at) = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of trips ordered by departure and the total match count
func (r *TripRepository) List(ctx context.Context, f TripFilter) ([]models.Trip, int64, error) {
	where, args := f.where()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM trips%s ORDER BY departure_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		tripColumns, where, len(args)-1, len(args))

	trips, err := r.queryTrips(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// DueForTransition returns open trips that have departed and running trips that have returned
func (r *TripRepository) DueForTransition(ctx context.Context, now time.Time) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE (status IN ('UPCOMING', 'FULL') AND departure_at <= $1)
		   OR (status = 'ONGOING' AND return_at <= $1)
		ORDER BY departure_at ASC`

	return r.queryTrips(ctx, query, now)
}

func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]models.Trip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := []models.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *trip)
	}
	return trips, rows.Err()
}
