// Package fleet declares the decode schemas for every warehouse record
// shape the dashboard reads, and converts decoded records into domain types.
package fleet

import (
	"fleet-dash/internal/tabular"
)

// Schema names, as exposed by the registry and the decode endpoint.
const (
	SchemaVehicle  = "vehicle"
	SchemaDriver   = "driver"
	SchemaLocation = "vehicle_location"
	SchemaOdometer = "odometer"
	SchemaTrip     = "trip_summary"
)

// VehicleSchema decodes rows of the vehicle dimension.
var VehicleSchema = tabular.NewSchema(SchemaVehicle,
	tabular.FieldSpec{Name: "vehicle_id", Aliases: []string{"id"}, Type: tabular.Integer},
	tabular.FieldSpec{Name: "license_plate", Aliases: []string{"plate", "registration_number"}, Type: tabular.String},
	tabular.FieldSpec{Name: "make", Aliases: []string{"manufacturer"}, Type: tabular.String},
	tabular.FieldSpec{Name: "model", Type: tabular.String},
	tabular.FieldSpec{Name: "year", Aliases: []string{"model_year"}, Type: tabular.Integer},
	tabular.FieldSpec{Name: "status", Type: tabular.String, Default: "active"},
	tabular.FieldSpec{Name: "is_active", Aliases: []string{"active"}, Type: tabular.Boolean},
)

// DriverSchema decodes rows of the driver dimension.
var DriverSchema = tabular.NewSchema(SchemaDriver,
	tabular.FieldSpec{Name: "driver_id", Aliases: []string{"id"}, Type: tabular.Integer},
	tabular.FieldSpec{Name: "first_name", Type: tabular.String},
	tabular.FieldSpec{Name: "last_name", Aliases: []string{"surname"}, Type: tabular.String},
	tabular.FieldSpec{Name: "license_number", Aliases: []string{"driving_license"}, Type: tabular.String},
	tabular.FieldSpec{Name: "phone", Aliases: []string{"phone_number"}, Type: tabular.String},
	tabular.FieldSpec{Name: "is_blocked", Aliases: []string{"blocked"}, Type: tabular.Boolean},
	tabular.FieldSpec{Name: "rating", Type: tabular.Real},
	tabular.FieldSpec{Name: "assigned_vehicle_id", Aliases: []string{"vehicle_id"}, Type: tabular.Integer},
)

// LocationSchema decodes GPS fixes.
var LocationSchema = tabular.NewSchema(SchemaLocation,
	tabular.FieldSpec{Name: "vehicle_id", Type: tabular.Integer},
	tabular.FieldSpec{Name: "latitude", Aliases: []string{"lat"}, Type: tabular.Real},
	tabular.FieldSpec{Name: "longitude", Aliases: []string{"lon", "lng"}, Type: tabular.Real},
	tabular.FieldSpec{Name: "speed_kmh", Aliases: []string{"speed"}, Type: tabular.Real},
	tabular.FieldSpec{Name: "heading", Aliases: []string{"bearing"}, Type: tabular.Real},
	tabular.FieldSpec{Name: "recorded_at", Aliases: []string{"event_timestamp", "timestamp"}, Type: tabular.Timestamp},
)

// OdometerSchema decodes odometer history rows. A reading of zero is not a
// real reading and decodes as absent.
var OdometerSchema = tabular.NewSchema(SchemaOdometer,
	tabular.FieldSpec{Name: "vehicle_id", Type: tabular.Integer},
	tabular.FieldSpec{Name: "odometer", Aliases: []string{"odometer_km", "end_odometer"}, Type: tabular.Real, ZeroAsAbsent: true},
	tabular.FieldSpec{Name: "end_timestamp", Aliases: []string{"recorded_at"}, Type: tabular.Timestamp},
)

// TripSchema decodes the warehouse trip summary.
var TripSchema = tabular.NewSchema(SchemaTrip,
	tabular.FieldSpec{Name: "trip_id", Aliases: []string{"id"}, Type: tabular.String},
	tabular.FieldSpec{Name: "vehicle_id", Type: tabular.Integer},
	tabular.FieldSpec{Name: "driver_id", Type: tabular.Integer},
	tabular.FieldSpec{Name: "status", Aliases: []string{"trip_status"}, Type: tabular.String},
	tabular.FieldSpec{Name: "distance_km", Aliases: []string{"distance"}, Type: tabular.Real},
	tabular.FieldSpec{Name: "start_timestamp", Aliases: []string{"started_at"}, Type: tabular.Timestamp},
	tabular.FieldSpec{Name: "end_timestamp", Aliases: []string{"ended_at"}, Type: tabular.Timestamp},
)

// LatestOdometerPolicy picks the most recent odometer reading.
var LatestOdometerPolicy = tabular.Latest("end_timestamp")

// LatestLocationPolicy picks the most recent GPS fix.
var LatestLocationPolicy = tabular.Latest("recorded_at")

// BuiltinSchemas returns the schemas compiled into the binary.
func BuiltinSchemas() []tabular.Schema {
	return []tabular.Schema{VehicleSchema, DriverSchema, LocationSchema, OdometerSchema, TripSchema}
}
