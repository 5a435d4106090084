package warehouse

import (
	"context"
	"database/sql"
	"fmt"
)

// demoStatements create and fill the demo warehouse tables. The data is
// deliberately sparse: nulls, text-typed numbers and zero odometer
// readings all occur in the real warehouse.
var demoStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		VEHICLE_ID BIGINT, LICENSE_PLATE VARCHAR, MAKE VARCHAR, MODEL VARCHAR,
		MODEL_YEAR VARCHAR, STATUS VARCHAR, IS_ACTIVE VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		DRIVER_ID VARCHAR, FIRST_NAME VARCHAR, LAST_NAME VARCHAR, LICENSE_NUMBER VARCHAR,
		PHONE_NUMBER VARCHAR, IS_BLOCKED BOOLEAN, RATING DOUBLE, VEHICLE_ID BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_locations (
		VEHICLE_ID BIGINT, LAT DOUBLE, LNG DOUBLE, SPEED DOUBLE, HEADING DOUBLE, RECORDED_AT TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS odometer_history (
		VEHICLE_ID BIGINT, ODOMETER DOUBLE, END_TIMESTAMP TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS trip_summary (
		TRIP_ID VARCHAR, VEHICLE_ID BIGINT, DRIVER_ID BIGINT, STATUS VARCHAR,
		DISTANCE_KM DOUBLE, START_TIMESTAMP TIMESTAMP, END_TIMESTAMP TIMESTAMP
	)`,
	`INSERT INTO vehicles VALUES
		(1, 'FL-001-A', 'Volvo', 'FH16', '2021', 'active', 'true'),
		(2, 'FL-002-B', 'Scania', 'R450', '2019', 'maintenance', 'false'),
		(3, 'FL-003-C', 'DAF', 'XF', NULL, NULL, 'TRUE'),
		(4, NULL, 'MAN', 'TGX', '2023', 'retired', NULL)`,
	`INSERT INTO drivers VALUES
		('7', 'Dana', 'Kim', 'NL-778812', '+31 6 1111 2222', false, 4.8, 1),
		('8', 'Ravi', 'Patel', 'NL-112233', NULL, true, 3.9, 2),
		('9', 'Mia', NULL, '', '+31 6 3333 4444', NULL, NULL, NULL)`,
	`INSERT INTO vehicle_locations VALUES
		(1, 52.3702, 4.8952, 72.5, 90, TIMESTAMP '2024-05-01 08:00:00'),
		(1, 52.3791, 4.9003, 64.0, 85, TIMESTAMP '2024-05-01 08:05:00'),
		(2, 51.9244, 4.4777, 0, NULL, TIMESTAMP '2024-05-01 07:55:00'),
		(3, 52.0907, 5.1214, 88.1, 180, TIMESTAMP '2024-05-01 08:02:00')`,
	`INSERT INTO odometer_history VALUES
		(1, 120400.5, TIMESTAMP '2024-04-30 18:00:00'),
		(1, 120655.0, TIMESTAMP '2024-05-01 18:00:00'),
		(1, 120512.2, TIMESTAMP '2024-05-01 06:00:00'),
		(2, 98000.0, TIMESTAMP '2024-04-20 17:00:00'),
		(2, 0, TIMESTAMP '2024-05-01 17:00:00'),
		(3, 15000.0, TIMESTAMP '2024-05-01 12:00:00')`,
	`INSERT INTO trip_summary VALUES
		('t-1001', 1, 7, 'completed', 212.4, TIMESTAMP '2024-05-01 06:00:00', TIMESTAMP '2024-05-01 09:10:00'),
		('t-1002', 2, 8, 'completed', 87.0, TIMESTAMP '2024-05-01 10:00:00', TIMESTAMP '2024-05-01 11:30:00'),
		('t-1003', 1, 7, 'in_progress', NULL, TIMESTAMP '2024-05-01 14:00:00', NULL)`,
}

// SeedDemo creates the demo warehouse tables and rows. It is a no-op when
// the vehicles table already has data.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, demoStatements[0]); err != nil {
		return fmt.Errorf("create vehicles: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM vehicles").Scan(&n); err != nil {
		return fmt.Errorf("count vehicles: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, stmt := range demoStatements[1:] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("seed demo warehouse: %w", err)
		}
	}
	return nil
}
