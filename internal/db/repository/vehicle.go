package repository

import (
	"context"
	"database/sql"

	"fleet-dash/internal/domain"
)

var _ domain.VehicleRepository = (*VehicleRepo)(nil)

// VehicleRepo stores vehicles.
type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

const vehicleColumns = `id, license_plate, make, model, year, status, is_active`

func (r *VehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error {
	if v.ID <= 0 {
		return domain.ErrValidation("vehicle id must be positive")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			license_plate = excluded.license_plate,
			make = excluded.make,
			model = excluded.model,
			year = excluded.year,
			status = excluded.status,
			is_active = excluded.is_active,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		v.ID, v.LicensePlate, v.Make, v.Model, v.Year, v.Status, boolToInt(v.IsActive))
	return mapDBError(err)
}

func (r *VehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return v, nil
}

func (r *VehicleRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Vehicle, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	vehicles := make([]domain.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVehicle(s scanner) (*domain.Vehicle, error) {
	var (
		v        domain.Vehicle
		isActive int64
	)
	if err := s.Scan(&v.ID, &v.LicensePlate, &v.Make, &v.Model, &v.Year, &v.Status, &isActive); err != nil {
		return nil, err
	}
	v.IsActive = isActive != 0
	return &v, nil
}
