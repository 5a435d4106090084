package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"fleet-dash/internal/domain"
)

var _ domain.TripRepository = (*TripRepo)(nil)

// TripRepo stores trips.
type TripRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db, now: time.Now}
}

const tripColumns = `id, vehicle_id, driver_id, status, started_at, ended_at, distance_km`

// Create inserts a new in-progress trip. An empty ID is replaced with a
// generated one and a zero StartedAt with the current time.
func (r *TripRepo) Create(ctx context.Context, t *domain.Trip) (*domain.Trip, error) {
	trip := *t
	if trip.ID == "" {
		trip.ID = domain.NewID()
	}
	if trip.StartedAt.IsZero() {
		trip.StartedAt = r.now()
	}
	trip.StartedAt = trip.StartedAt.UTC().Truncate(time.Millisecond)
	trip.Status = domain.TripStatusInProgress
	trip.EndedAt = nil
	trip.DistanceKm = 0

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (id, vehicle_id, driver_id, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		trip.ID, trip.VehicleID, trip.DriverID, trip.Status, formatTime(trip.StartedAt))
	if err != nil {
		return nil, mapDBError(err)
	}
	return &trip, nil
}

// Complete marks an in-progress trip as completed.
func (r *TripRepo) Complete(ctx context.Context, id string, distanceKm float64) (*domain.Trip, error) {
	if distanceKm < 0 {
		return nil, domain.ErrValidation("distance must not be negative")
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET status = ?, ended_at = ?, distance_km = ? WHERE id = ? AND status = ?`,
		domain.TripStatusCompleted, formatTime(r.now()), distanceKm, id, domain.TripStatusInProgress)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrConflict("trip %s is already %s", id, existing.Status)
	}
	return r.get(ctx, id)
}

// List returns trips newest first.
func (r *TripRepo) List(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, int64, error) {
	var (
		where []string
		args  []any
	)
	if filter.VehicleID != nil {
		where = append(where, "vehicle_id = ?")
		args = append(args, *filter.VehicleID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tripColumns+` FROM trips`+clause+` ORDER BY started_at DESC, id LIMIT ? OFFSET ?`,
		append(args, filter.Page.Limit(), filter.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, *t)
	}
	return trips, total, rows.Err()
}

func (r *TripRepo) get(ctx context.Context, id string) (*domain.Trip, error) {
	t, err := scanTrip(r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id))
	if err != nil {
		return nil, mapDBError(err)
	}
	return t, nil
}

func scanTrip(s scanner) (*domain.Trip, error) {
	var (
		t         domain.Trip
		startedAt string
		endedAt   sql.NullString
	)
	if err := s.Scan(&t.ID, &t.VehicleID, &t.DriverID, &t.Status, &startedAt, &endedAt, &t.DistanceKm); err != nil {
		return nil, err
	}
	t.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		ended := parseTime(endedAt.String)
		t.EndedAt = &ended
	}
	return &t, nil
}
