package domain

import "time"

// Vehicle statuses reported by the warehouse.
const (
	VehicleStatusActive      = "active"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusRetired     = "retired"
)

// Vehicle is a fleet vehicle.
type Vehicle struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"license_plate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int64  `json:"year"`
	Status       string `json:"status"`
	IsActive     bool   `json:"is_active"`
}

// Driver is a person allowed to operate fleet vehicles.
type Driver struct {
	ID                int64   `json:"id"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	LicenseNumber     string  `json:"license_number"`
	Phone             string  `json:"phone"`
	IsBlocked         bool    `json:"is_blocked"`
	Rating            float64 `json:"rating"`
	AssignedVehicleID int64   `json:"assigned_vehicle_id"`
}

// FullName joins first and last name.
func (d Driver) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// VehicleLocation is a GPS fix for a vehicle.
type VehicleLocation struct {
	VehicleID  int64     `json:"vehicle_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKmh   float64   `json:"speed_kmh"`
	Heading    float64   `json:"heading"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OdometerReading is the most recent odometer value for a vehicle.
// Kilometers is nil when the vehicle has no real reading.
type OdometerReading struct {
	VehicleID  int64     `json:"vehicle_id"`
	Kilometers *float64  `json:"odometer_km"`
	RecordedAt time.Time `json:"recorded_at,omitzero"`
}

// Trip statuses.
const (
	TripStatusInProgress = "in_progress"
	TripStatusCompleted  = "completed"
	TripStatusCancelled  = "cancelled"
)

// Trip is a journey recorded in the relational store.
type Trip struct {
	ID         string     `json:"id"`
	VehicleID  int64      `json:"vehicle_id"`
	DriverID   int64      `json:"driver_id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DistanceKm float64    `json:"distance_km"`
}

// TripFilter narrows a trip listing.
type TripFilter struct {
	VehicleID *int64
	Status    *string
	Page      PageRequest
}

// DashboardKPIs is the headline summary shown on the dashboard.
type DashboardKPIs struct {
	TotalVehicles     int       `json:"total_vehicles"`
	ActiveVehicles    int       `json:"active_vehicles"`
	TotalDrivers      int       `json:"total_drivers"`
	BlockedDrivers    int       `json:"blocked_drivers"`
	ReportingVehicles int       `json:"reporting_vehicles"`
	AverageOdometerKm *float64  `json:"average_odometer_km"`
	TotalTripDistance float64   `json:"total_trip_distance_km"`
	CompletedTrips    int       `json:"completed_trips"`
	GeneratedAt       time.Time `json:"generated_at"`
}
