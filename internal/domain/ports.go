package domain

import (
	"context"

	"fleet-dash/internal/tabular"
)

// Warehouse runs a query through the warehouse proxy and returns its
// columnar payload. A nil payload with a nil error means the proxy
// answered without a result object.
type Warehouse interface {
	Query(ctx context.Context, sql string) (*tabular.Payload, error)
}

// VehicleRepository stores vehicles in the relational store.
type VehicleRepository interface {
	Upsert(ctx context.Context, v *Vehicle) error
	GetByID(ctx context.Context, id int64) (*Vehicle, error)
	List(ctx context.Context, page PageRequest) ([]Vehicle, int64, error)
}

// DriverRepository stores drivers in the relational store.
type DriverRepository interface {
	Upsert(ctx context.Context, d *Driver) error
	GetByID(ctx context.Context, id int64) (*Driver, error)
	List(ctx context.Context, page PageRequest) ([]Driver, int64, error)
}

// TripRepository stores trips in the relational store.
type TripRepository interface {
	Create(ctx context.Context, t *Trip) (*Trip, error)
	Complete(ctx context.Context, id string, distanceKm float64) (*Trip, error)
	List(ctx context.Context, filter TripFilter) ([]Trip, int64, error)
}
