package fleet

import (
	"errors"
	"slices"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

// Decode decodes a payload with schema and converts every record with conv.
// A missing payload is reported as *domain.PayloadMissingError.
func Decode[T any](payload *tabular.Payload, schema tabular.Schema, conv func(tabular.Record) T) ([]T, error) {
	recs, err := tabular.DecodeAll(payload, schema)
	if err != nil {
		if errors.Is(err, tabular.ErrPayloadMissing) {
			return nil, &domain.PayloadMissingError{Query: schema.Name, Err: err}
		}
		return nil, err
	}
	out := make([]T, len(recs))
	for i, rec := range recs {
		out[i] = conv(rec)
	}
	return out, nil
}

// VehicleFromRecord converts a record decoded with VehicleSchema.
func VehicleFromRecord(rec tabular.Record) domain.Vehicle {
	return domain.Vehicle{
		ID:           rec.Int("vehicle_id"),
		LicensePlate: rec.Text("license_plate"),
		Make:         rec.Text("make"),
		Model:        rec.Text("model"),
		Year:         rec.Int("year"),
		Status:       rec.Text("status"),
		IsActive:     rec.Bool("is_active"),
	}
}

// DriverFromRecord converts a record decoded with DriverSchema.
func DriverFromRecord(rec tabular.Record) domain.Driver {
	return domain.Driver{
		ID:                rec.Int("driver_id"),
		FirstName:         rec.Text("first_name"),
		LastName:          rec.Text("last_name"),
		LicenseNumber:     rec.Text("license_number"),
		Phone:             rec.Text("phone"),
		IsBlocked:         rec.Bool("is_blocked"),
		Rating:            rec.Float("rating"),
		AssignedVehicleID: rec.Int("assigned_vehicle_id"),
	}
}

// LocationFromRecord converts a record decoded with LocationSchema.
func LocationFromRecord(rec tabular.Record) domain.VehicleLocation {
	return domain.VehicleLocation{
		VehicleID:  rec.Int("vehicle_id"),
		Latitude:   rec.Float("latitude"),
		Longitude:  rec.Float("longitude"),
		SpeedKmh:   rec.Float("speed_kmh"),
		Heading:    rec.Float("heading"),
		RecordedAt: rec.Time("recorded_at"),
	}
}

// OdometerFromRecord converts a record decoded with OdometerSchema.
func OdometerFromRecord(rec tabular.Record) domain.OdometerReading {
	return domain.OdometerReading{
		VehicleID:  rec.Int("vehicle_id"),
		Kilometers: rec.FloatPtr("odometer"),
		RecordedAt: rec.Time("end_timestamp"),
	}
}

// TripFromRecord converts a record decoded with TripSchema.
func TripFromRecord(rec tabular.Record) domain.Trip {
	t := domain.Trip{
		ID:         rec.Text("trip_id"),
		VehicleID:  rec.Int("vehicle_id"),
		DriverID:   rec.Int("driver_id"),
		Status:     rec.Text("status"),
		DistanceKm: rec.Float("distance_km"),
		StartedAt:  rec.Time("start_timestamp"),
	}
	if end := rec.Time("end_timestamp"); !end.IsZero() {
		t.EndedAt = &end
	}
	return t
}

// LatestOdometer picks the most recent reading for vehicleID from an
// odometer history payload. The result has nil Kilometers when the history
// is empty or the latest reading is zero.
func LatestOdometer(vehicleID int64, payload *tabular.Payload) (domain.OdometerReading, error) {
	recs, err := tabular.DecodeAll(payload, OdometerSchema)
	if err != nil {
		return domain.OdometerReading{}, &domain.PayloadMissingError{Query: SchemaOdometer, Err: err}
	}
	top := tabular.SelectTop(recs, LatestOdometerPolicy)
	if len(top) == 0 {
		return domain.OdometerReading{VehicleID: vehicleID}, nil
	}
	reading := OdometerFromRecord(top[0])
	reading.VehicleID = vehicleID
	return reading, nil
}

// LatestLocations decodes a location history payload and keeps the most
// recent fix per vehicle, ordered by vehicle ID.
func LatestLocations(payload *tabular.Payload) ([]domain.VehicleLocation, error) {
	recs, err := tabular.DecodeAll(payload, LocationSchema)
	if err != nil {
		return nil, &domain.PayloadMissingError{Query: SchemaLocation, Err: err}
	}
	return latestPerVehicle(recs, LatestLocationPolicy, LocationFromRecord), nil
}

// LatestOdometers decodes an odometer history payload covering many
// vehicles and keeps the most recent reading per vehicle, ordered by
// vehicle ID.
func LatestOdometers(payload *tabular.Payload) ([]domain.OdometerReading, error) {
	recs, err := tabular.DecodeAll(payload, OdometerSchema)
	if err != nil {
		return nil, &domain.PayloadMissingError{Query: SchemaOdometer, Err: err}
	}
	return latestPerVehicle(recs, LatestOdometerPolicy, OdometerFromRecord), nil
}

func latestPerVehicle[T any](recs []tabular.Record, policy tabular.SelectionPolicy, conv func(tabular.Record) T) []T {
	byVehicle := make(map[int64][]tabular.Record)
	var order []int64
	for _, rec := range recs {
		id := rec.Int("vehicle_id")
		if _, seen := byVehicle[id]; !seen {
			order = append(order, id)
		}
		byVehicle[id] = append(byVehicle[id], rec)
	}
	slices.Sort(order)

	out := make([]T, 0, len(order))
	for _, id := range order {
		top := tabular.SelectTop(byVehicle[id], policy)
		out = append(out, conv(top[0]))
	}
	return out
}
