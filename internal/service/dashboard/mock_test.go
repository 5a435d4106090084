package dashboard

import (
	"context"
	"fmt"
	"sync"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

var errTest = fmt.Errorf("test error")

// === Warehouse Mock ===

// mockWarehouse answers queries from a fixed table of payloads. A query
// with no entry fails with errTest.
type mockWarehouse struct {
	mu       sync.Mutex
	payloads map[string]*tabular.Payload
	calls    []string
}

func (m *mockWarehouse) Query(_ context.Context, sql string) (*tabular.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sql)
	p, ok := m.payloads[sql]
	if !ok {
		return nil, errTest
	}
	return p, nil
}

// === Vehicle Repository Mock ===

type mockVehicleRepo struct {
	upserted []domain.Vehicle
	listFn   func(ctx context.Context, page domain.PageRequest) ([]domain.Vehicle, int64, error)
}

func (m *mockVehicleRepo) Upsert(_ context.Context, v *domain.Vehicle) error {
	m.upserted = append(m.upserted, *v)
	return nil
}

func (m *mockVehicleRepo) GetByID(_ context.Context, _ int64) (*domain.Vehicle, error) {
	panic("unexpected call to mockVehicleRepo.GetByID")
}

func (m *mockVehicleRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Vehicle, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page)
	}
	panic("unexpected call to mockVehicleRepo.List")
}

// === Driver Repository Mock ===

type mockDriverRepo struct {
	upserted []domain.Driver
	listFn   func(ctx context.Context, page domain.PageRequest) ([]domain.Driver, int64, error)
}

func (m *mockDriverRepo) Upsert(_ context.Context, d *domain.Driver) error {
	m.upserted = append(m.upserted, *d)
	return nil
}

func (m *mockDriverRepo) GetByID(_ context.Context, _ int64) (*domain.Driver, error) {
	panic("unexpected call to mockDriverRepo.GetByID")
}

func (m *mockDriverRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Driver, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page)
	}
	panic("unexpected call to mockDriverRepo.List")
}

// === Trip Repository Mock ===

// mockTripRepo keeps trips in memory with the same conflict rules as the
// SQLite repository.
type mockTripRepo struct {
	trips  map[string]domain.Trip
	listFn func(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, int64, error)
}

func newMockTripRepo() *mockTripRepo {
	return &mockTripRepo{trips: make(map[string]domain.Trip)}
}

func (m *mockTripRepo) Create(_ context.Context, t *domain.Trip) (*domain.Trip, error) {
	if _, ok := m.trips[t.ID]; ok {
		return nil, domain.ErrConflict("resource already exists")
	}
	trip := *t
	trip.Status = domain.TripStatusInProgress
	trip.EndedAt = nil
	trip.DistanceKm = 0
	m.trips[t.ID] = trip
	return &trip, nil
}

func (m *mockTripRepo) Complete(_ context.Context, id string, distanceKm float64) (*domain.Trip, error) {
	trip, ok := m.trips[id]
	if !ok {
		return nil, domain.ErrNotFound("trip %s not found", id)
	}
	if trip.Status != domain.TripStatusInProgress {
		return nil, domain.ErrConflict("trip %s is already %s", id, trip.Status)
	}
	trip.Status = domain.TripStatusCompleted
	trip.DistanceKm = distanceKm
	m.trips[id] = trip
	return &trip, nil
}

func (m *mockTripRepo) List(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	panic("unexpected call to mockTripRepo.List")
}
