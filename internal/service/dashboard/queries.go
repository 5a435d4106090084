package dashboard

import "fmt"

// Warehouse queries. Column names vary between warehouse releases; the
// decode schemas absorb the differences, so the queries select everything.
const (
	queryVehicles  = `SELECT * FROM vehicles ORDER BY VEHICLE_ID`
	queryDrivers   = `SELECT * FROM drivers ORDER BY DRIVER_ID`
	queryLocations = `SELECT * FROM vehicle_locations`
	queryOdometers = `SELECT * FROM odometer_history`
	queryTrips     = `SELECT * FROM trip_summary`
)

func odometerQuery(vehicleID int64) string {
	return fmt.Sprintf(`SELECT * FROM odometer_history WHERE VEHICLE_ID = %d`, vehicleID)
}
