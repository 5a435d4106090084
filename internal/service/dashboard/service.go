// Package dashboard implements the dashboard's read paths: warehouse queries
// decoded through the fleet schemas, with the relational store as the
// system of record for trips and as a fallback for dimensions.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/fleet"
	"fleet-dash/internal/tabular"
)

// DefaultReportingWindow is how recent a GPS fix must be for a vehicle to
// count as reporting.
const DefaultReportingWindow = 24 * time.Hour

// Options tunes a Service.
type Options struct {
	ReportingWindow time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Service serves fleet data to the API.
type Service struct {
	warehouse domain.Warehouse
	vehicles  domain.VehicleRepository
	drivers   domain.DriverRepository
	trips     domain.TripRepository

	reportingWindow time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates a Service.
func NewService(
	wh domain.Warehouse,
	vehicles domain.VehicleRepository,
	drivers domain.DriverRepository,
	trips domain.TripRepository,
	opts Options,
) *Service {
	if opts.ReportingWindow <= 0 {
		opts.ReportingWindow = DefaultReportingWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		warehouse:       wh,
		vehicles:        vehicles,
		drivers:         drivers,
		trips:           trips,
		reportingWindow: opts.ReportingWindow,
		logger:          opts.Logger.With("component", "fleet-service"),
		now:             opts.Now,
	}
}

// ListVehicles returns every vehicle known to the warehouse. When the
// warehouse cannot be reached the relational store answers instead; a
// missing payload is not a reachability problem and is returned as is.
func (s *Service) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleViewer); err != nil {
		return nil, err
	}
	vehicles, err := s.fetchVehicles(ctx)
	if err == nil || !s.canFallBack(err) {
		return vehicles, err
	}
	s.logger.Warn("warehouse unavailable, serving vehicles from store", "error", err)
	vehicles, err = listAll(ctx, s.vehicles.List)
	if err != nil {
		return nil, fmt.Errorf("list stored vehicles: %w", err)
	}
	return vehicles, nil
}

// ListDrivers returns every driver. Driver data is personal, so managers
// and admins only.
func (s *Service) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleManager); err != nil {
		return nil, err
	}
	drivers, err := s.fetchDrivers(ctx)
	if err == nil || !s.canFallBack(err) {
		return drivers, err
	}
	s.logger.Warn("warehouse unavailable, serving drivers from store", "error", err)
	drivers, err = listAll(ctx, s.drivers.List)
	if err != nil {
		return nil, fmt.Errorf("list stored drivers: %w", err)
	}
	return drivers, nil
}

// listAll pages through a repository listing until the reported total is
// reached.
func listAll[T any](ctx context.Context, list func(context.Context, domain.PageRequest) ([]T, int64, error)) ([]T, error) {
	out := make([]T, 0)
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		items, total, err := list(ctx, page)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		next := page.NextPageToken(total)
		if next == "" || len(items) == 0 {
			return out, nil
		}
		page.PageToken = next
	}
}

// ListLocations returns the latest GPS fix per vehicle.
func (s *Service) ListLocations(ctx context.Context) ([]domain.VehicleLocation, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleViewer); err != nil {
		return nil, err
	}
	payload, err := s.query(ctx, queryLocations)
	if err != nil {
		return nil, err
	}
	return fleet.LatestLocations(payload)
}

// LatestOdometer returns the most recent odometer reading for a vehicle.
func (s *Service) LatestOdometer(ctx context.Context, vehicleID int64) (domain.OdometerReading, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleViewer); err != nil {
		return domain.OdometerReading{}, err
	}
	if vehicleID <= 0 {
		return domain.OdometerReading{}, domain.ErrValidation("vehicle id must be positive")
	}
	payload, err := s.query(ctx, odometerQuery(vehicleID))
	if err != nil {
		return domain.OdometerReading{}, err
	}
	return fleet.LatestOdometer(vehicleID, payload)
}

// ListTrips returns a page of trips from the relational store.
func (s *Service) ListTrips(ctx context.Context, filter domain.TripFilter) ([]domain.Trip, int64, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleViewer); err != nil {
		return nil, 0, err
	}
	return s.trips.List(ctx, filter)
}

// DashboardKPIs computes the dashboard summary.
func (s *Service) DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error) {
	if _, err := domain.RequireRole(ctx, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.computeKPIs(ctx)
}

// WarmKPIs computes the dashboard summary without a caller, filling the
// warehouse cache for the next request.
func (s *Service) WarmKPIs(ctx context.Context) error {
	_, err := s.computeKPIs(ctx)
	return err
}

func (s *Service) computeKPIs(ctx context.Context) (*domain.DashboardKPIs, error) {
	var (
		vehicles  []domain.Vehicle
		drivers   []domain.Driver
		locations []domain.VehicleLocation
		odometers []domain.OdometerReading
		trips     []domain.Trip
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() (err error) {
		vehicles, err = s.fetchVehicles(gctx)
		return err
	})
	g.Go(func() (err error) {
		drivers, err = s.fetchDrivers(gctx)
		return err
	})
	g.Go(func() error {
		payload, err := s.query(gctx, queryLocations)
		if err != nil {
			return err
		}
		locations, err = fleet.LatestLocations(payload)
		return err
	})
	g.Go(func() error {
		payload, err := s.query(gctx, queryOdometers)
		if err != nil {
			return err
		}
		odometers, err = fleet.LatestOdometers(payload)
		return err
	})
	g.Go(func() error {
		payload, err := s.query(gctx, queryTrips)
		if err != nil {
			return err
		}
		trips, err = fleet.Decode(payload, fleet.TripSchema, fleet.TripFromRecord)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	kpis := &domain.DashboardKPIs{
		TotalVehicles: len(vehicles),
		TotalDrivers:  len(drivers),
		GeneratedAt:   now.UTC(),
	}
	for _, v := range vehicles {
		if v.IsActive {
			kpis.ActiveVehicles++
		}
	}
	for _, d := range drivers {
		if d.IsBlocked {
			kpis.BlockedDrivers++
		}
	}
	cutoff := now.Add(-s.reportingWindow)
	for _, l := range locations {
		if !l.RecordedAt.IsZero() && l.RecordedAt.After(cutoff) {
			kpis.ReportingVehicles++
		}
	}

	var (
		sum float64
		n   int
	)
	for _, r := range odometers {
		if r.Kilometers != nil {
			sum += *r.Kilometers
			n++
		}
	}
	if n > 0 {
		avg := sum / float64(n)
		kpis.AverageOdometerKm = &avg
	}

	for _, t := range trips {
		if t.Status == domain.TripStatusCompleted {
			kpis.CompletedTrips++
			kpis.TotalTripDistance += t.DistanceKm
		}
	}
	return kpis, nil
}

// Sync copies vehicles, drivers and trips from the warehouse into the
// relational store. Trips already in the store are left alone unless the
// warehouse reports them completed. Admins only.
func (s *Service) Sync(ctx context.Context) error {
	if _, err := domain.RequireRole(ctx, domain.RoleAdmin); err != nil {
		return err
	}
	return s.syncStore(ctx)
}

func (s *Service) syncStore(ctx context.Context) error {
	vehicles, err := s.fetchVehicles(ctx)
	if err != nil {
		return err
	}
	for i := range vehicles {
		if vehicles[i].ID <= 0 {
			continue
		}
		if err := s.vehicles.Upsert(ctx, &vehicles[i]); err != nil {
			return fmt.Errorf("store vehicle %d: %w", vehicles[i].ID, err)
		}
	}

	drivers, err := s.fetchDrivers(ctx)
	if err != nil {
		return err
	}
	for i := range drivers {
		if drivers[i].ID <= 0 {
			continue
		}
		if err := s.drivers.Upsert(ctx, &drivers[i]); err != nil {
			return fmt.Errorf("store driver %d: %w", drivers[i].ID, err)
		}
	}

	payload, err := s.query(ctx, queryTrips)
	if err != nil {
		return err
	}
	trips, err := fleet.Decode(payload, fleet.TripSchema, fleet.TripFromRecord)
	if err != nil {
		return err
	}
	var imported, completed int
	for i := range trips {
		t := trips[i]
		if t.ID == "" {
			continue
		}
		_, err := s.trips.Create(ctx, &t)
		var conflict *domain.ConflictError
		switch {
		case err == nil:
			imported++
		case errors.As(err, &conflict):
		default:
			s.logger.Warn("skipping trip", "trip_id", t.ID, "error", err)
			continue
		}
		if t.Status != domain.TripStatusCompleted {
			continue
		}
		if _, err := s.trips.Complete(ctx, t.ID, t.DistanceKm); err == nil {
			completed++
		} else if !errors.As(err, &conflict) {
			s.logger.Warn("completing trip failed", "trip_id", t.ID, "error", err)
		}
	}

	s.logger.Info("warehouse sync completed",
		"vehicles", len(vehicles),
		"drivers", len(drivers),
		"trips_imported", imported,
		"trips_completed", completed,
	)
	return nil
}

func (s *Service) fetchVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	payload, err := s.query(ctx, queryVehicles)
	if err != nil {
		return nil, err
	}
	return fleet.Decode(payload, fleet.VehicleSchema, fleet.VehicleFromRecord)
}

func (s *Service) fetchDrivers(ctx context.Context) ([]domain.Driver, error) {
	payload, err := s.query(ctx, queryDrivers)
	if err != nil {
		return nil, err
	}
	return fleet.Decode(payload, fleet.DriverSchema, fleet.DriverFromRecord)
}

func (s *Service) query(ctx context.Context, sql string) (*tabular.Payload, error) {
	payload, err := s.warehouse.Query(ctx, sql)
	if err != nil {
		return nil, &domain.WarehouseError{Err: err}
	}
	return payload, nil
}

// canFallBack reports whether err came from reaching the warehouse rather
// than from the shape of its answer.
func (s *Service) canFallBack(err error) bool {
	var werr *domain.WarehouseError
	return errors.As(err, &werr) && !errors.Is(err, context.Canceled)
}
