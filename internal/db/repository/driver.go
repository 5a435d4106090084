package repository

import (
	"context"
	"database/sql"

	"fleet-dash/internal/domain"
)

var _ domain.DriverRepository = (*DriverRepo)(nil)

// DriverRepo stores drivers.
type DriverRepo struct {
	db *sql.DB
}

func NewDriverRepo(db *sql.DB) *DriverRepo {
	return &DriverRepo{db: db}
}

const driverColumns = `id, first_name, last_name, license_number, phone, is_blocked, rating, assigned_vehicle_id`

func (r *DriverRepo) Upsert(ctx context.Context, d *domain.Driver) error {
	if d.ID <= 0 {
		return domain.ErrValidation("driver id must be positive")
	}
	var assigned sql.NullInt64
	if d.AssignedVehicleID > 0 {
		assigned = sql.NullInt64{Int64: d.AssignedVehicleID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drivers (`+driverColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			license_number = excluded.license_number,
			phone = excluded.phone,
			is_blocked = excluded.is_blocked,
			rating = excluded.rating,
			assigned_vehicle_id = excluded.assigned_vehicle_id,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		d.ID, d.FirstName, d.LastName, d.LicenseNumber, d.Phone, boolToInt(d.IsBlocked), d.Rating, assigned)
	return mapDBError(err)
}

func (r *DriverRepo) GetByID(ctx context.Context, id int64) (*domain.Driver, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ?`, id)
	d, err := scanDriver(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return d, nil
}

func (r *DriverRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Driver, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drivers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+driverColumns+` FROM drivers ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	drivers := make([]domain.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, 0, err
		}
		drivers = append(drivers, *d)
	}
	return drivers, total, rows.Err()
}

func scanDriver(s scanner) (*domain.Driver, error) {
	var (
		d        domain.Driver
		blocked  int64
		assigned sql.NullInt64
	)
	if err := s.Scan(&d.ID, &d.FirstName, &d.LastName, &d.LicenseNumber, &d.Phone, &blocked, &d.Rating, &assigned); err != nil {
		return nil, err
	}
	d.IsBlocked = blocked != 0
	d.AssignedVehicleID = assigned.Int64
	return &d, nil
}
