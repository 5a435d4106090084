package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/fleet"
	"fleet-dash/internal/tabular"
)

// listResponse mirrors the API's list envelope.
type listResponse[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func newSchemasCmd(client *Client, s *settings) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List decode schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var schemas []tabular.Schema
			if local {
				registry, err := fleet.LoadRegistryDir(s.schemaDir)
				if err != nil {
					return err
				}
				schemas = registry.List()
			} else {
				var resp listResponse[tabular.Schema]
				if err := client.DoJSON(http.MethodGet, "/schemas", nil, nil, &resp); err != nil {
					return err
				}
				schemas = resp.Data
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, schemas)
			}
			rows := make([][]string, len(schemas))
			for i, sc := range schemas {
				rows[i] = []string{sc.Name, strings.Join(sc.FieldNames(), ", ")}
			}
			PrintTable(os.Stdout, []string{"name", "fields"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "List builtin and --schema-dir schemas without calling the API")

	return cmd
}

func newVehiclesCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listResponse[domain.Vehicle]
			if err := client.DoJSON(http.MethodGet, "/vehicles", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, resp)
			}
			rows := make([][]string, len(resp.Data))
			for i, v := range resp.Data {
				rows[i] = []string{
					formatCell(v.ID), v.LicensePlate, v.Make, v.Model,
					formatCell(v.Year), v.Status, formatCell(v.IsActive),
				}
			}
			PrintTable(os.Stdout, []string{"id", "plate", "make", "model", "year", "status", "active"}, rows)
			return nil
		},
	}

	cmd.AddCommand(newOdometerCmd(client))
	return cmd
}

func newOdometerCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "odometer <vehicle-id>",
		Short: "Show the latest odometer reading of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid vehicle id %q", args[0])
			}
			var reading domain.OdometerReading
			if err := client.DoJSON(http.MethodGet, "/vehicles/"+args[0]+"/odometer", nil, nil, &reading); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, reading)
			}
			PrintTable(os.Stdout, []string{"vehicle_id", "odometer_km", "recorded_at"}, [][]string{{
				formatCell(reading.VehicleID), formatCell(reading.Kilometers), formatCell(reading.RecordedAt),
			}})
			return nil
		},
	}
}

func newDriversCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List drivers (manager role)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listResponse[domain.Driver]
			if err := client.DoJSON(http.MethodGet, "/drivers", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, resp)
			}
			rows := make([][]string, len(resp.Data))
			for i, d := range resp.Data {
				rows[i] = []string{
					formatCell(d.ID), d.FullName(), d.Phone, formatCell(d.IsBlocked),
					formatCell(d.Rating), formatCell(d.AssignedVehicleID),
				}
			}
			PrintTable(os.Stdout, []string{"id", "name", "phone", "blocked", "rating", "vehicle"}, rows)
			return nil
		},
	}
}

func newLocationsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Show the latest location of every vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp listResponse[domain.VehicleLocation]
			if err := client.DoJSON(http.MethodGet, "/locations", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, resp)
			}
			rows := make([][]string, len(resp.Data))
			for i, l := range resp.Data {
				rows[i] = []string{
					formatCell(l.VehicleID), formatCell(l.Latitude), formatCell(l.Longitude),
					formatCell(l.SpeedKmh), formatCell(l.RecordedAt),
				}
			}
			PrintTable(os.Stdout, []string{"vehicle_id", "lat", "lng", "speed_kmh", "recorded_at"}, rows)
			return nil
		},
	}
}

func newTripsCmd(client *Client) *cobra.Command {
	var (
		vehicleID  int64
		status     string
		maxResults int
		pageToken  string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List trips from the fleet store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if cmd.Flags().Changed("vehicle-id") {
				q.Set("vehicle_id", strconv.FormatInt(vehicleID, 10))
			}
			if status != "" {
				q.Set("status", status)
			}
			if maxResults > 0 {
				q.Set("max_results", strconv.Itoa(maxResults))
			}
			if pageToken != "" {
				q.Set("page_token", pageToken)
			}

			var trips []domain.Trip
			var next string
			for {
				var resp listResponse[domain.Trip]
				if err := client.DoJSON(http.MethodGet, "/trips", q, nil, &resp); err != nil {
					return err
				}
				trips = append(trips, resp.Data...)
				next = resp.NextPageToken
				if !all || next == "" {
					break
				}
				q.Set("page_token", next)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, listResponse[domain.Trip]{Data: trips, NextPageToken: next})
			}
			rows := make([][]string, len(trips))
			for i, t := range trips {
				rows[i] = []string{
					t.ID, formatCell(t.VehicleID), formatCell(t.DriverID), t.Status,
					formatCell(t.DistanceKm), formatCell(t.StartedAt), formatCell(t.EndedAt),
				}
			}
			PrintTable(os.Stdout, []string{"id", "vehicle", "driver", "status", "distance_km", "started_at", "ended_at"}, rows)
			if next != "" {
				_, _ = fmt.Fprintf(os.Stderr, "More results: --page-token %s\n", next)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&vehicleID, "vehicle-id", 0, "Only trips of this vehicle")
	cmd.Flags().StringVar(&status, "status", "", "Only trips with this status (in_progress, completed, cancelled)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Page size")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Page token from a previous call")
	cmd.Flags().BoolVar(&all, "all", false, "Follow page tokens until exhausted")

	return cmd
}

func newKPIsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Show the dashboard KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var kpis domain.DashboardKPIs
			if err := client.DoJSON(http.MethodGet, "/dashboard/kpis", nil, nil, &kpis); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, kpis)
			}
			PrintTable(os.Stdout, []string{"kpi", "value"}, [][]string{
				{"total_vehicles", strconv.Itoa(kpis.TotalVehicles)},
				{"active_vehicles", strconv.Itoa(kpis.ActiveVehicles)},
				{"total_drivers", strconv.Itoa(kpis.TotalDrivers)},
				{"blocked_drivers", strconv.Itoa(kpis.BlockedDrivers)},
				{"reporting_vehicles", strconv.Itoa(kpis.ReportingVehicles)},
				{"average_odometer_km", formatCell(kpis.AverageOdometerKm)},
				{"completed_trips", strconv.Itoa(kpis.CompletedTrips)},
				{"total_trip_distance_km", formatCell(kpis.TotalTripDistance)},
			})
			return nil
		},
	}
}

func newSyncCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the fleet store from the warehouse (admin role)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client.DoJSON(http.MethodPost, "/sync", nil, nil, nil); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{"status": "ok"})
			}
			_, _ = fmt.Fprintln(os.Stdout, "Fleet store synced")
			return nil
		},
	}
}
