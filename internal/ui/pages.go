package ui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"fleet-dash/internal/domain"
)

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f8fa;color:#1f2328}
header{display:flex;justify-content:space-between;padding:12px 24px;background:#24292f;color:#fff}
main{padding:24px}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(200px,1fr));gap:16px}
.card{background:#fff;border:1px solid #d0d7de;border-radius:6px;padding:16px}
.card .value{font-size:2em;font-weight:600}
.muted{color:#656d76}
table{border-collapse:collapse;margin-top:24px;background:#fff}
th,td{border:1px solid #d0d7de;padding:6px 12px;text-align:left}
`

func layout(title string, principal domain.ContextPrincipal, body ...Node) Node {
	return Doctype(HTML(Lang("en"),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			TitleEl(Text(title+" | Fleet Dashboard")),
			StyleEl(Raw(stylesheet)),
		),
		Body(
			Header(
				Strong(Text("Fleet Dashboard")),
				Span(Textf("%s (%s)", principal.Name, principal.Role)),
			),
			Main(Group(body)),
		),
	))
}

func kpiCard(label, value string) Node {
	return Div(Class("card"),
		Div(Class("muted"), Text(label)),
		Div(Class("value"), Text(value)),
	)
}

func kpiPage(principal domain.ContextPrincipal, k *domain.DashboardKPIs, locations []domain.VehicleLocation) Node {
	odometer := "n/a"
	if k.AverageOdometerKm != nil {
		odometer = fmt.Sprintf("%.0f km", *k.AverageOdometerKm)
	}

	cards := Div(Class("grid"),
		kpiCard("Vehicles", strconv.Itoa(k.TotalVehicles)),
		kpiCard("Active vehicles", strconv.Itoa(k.ActiveVehicles)),
		kpiCard("Reporting vehicles", strconv.Itoa(k.ReportingVehicles)),
		kpiCard("Drivers", strconv.Itoa(k.TotalDrivers)),
		kpiCard("Blocked drivers", strconv.Itoa(k.BlockedDrivers)),
		kpiCard("Average odometer", odometer),
		kpiCard("Completed trips", strconv.Itoa(k.CompletedTrips)),
		kpiCard("Trip distance", fmt.Sprintf("%.1f km", k.TotalTripDistance)),
	)

	return layout("KPIs", principal,
		H1(Text("Overview")),
		P(Class("muted"), Textf("Generated %s", k.GeneratedAt.Format(time.RFC1123))),
		cards,
		locationTable(locations),
	)
}

func locationTable(locations []domain.VehicleLocation) Node {
	if len(locations) == 0 {
		return P(Class("muted"), Text("No vehicle positions available."))
	}
	rows := make([]Node, 0, len(locations))
	for _, l := range locations {
		seen := "unknown"
		if !l.RecordedAt.IsZero() {
			seen = l.RecordedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, Tr(
			Td(Text(strconv.FormatInt(l.VehicleID, 10))),
			Td(Textf("%.4f, %.4f", l.Latitude, l.Longitude)),
			Td(Textf("%.0f km/h", l.SpeedKmh)),
			Td(Text(seen)),
		))
	}
	return Table(
		THead(Tr(Th(Text("Vehicle")), Th(Text("Position")), Th(Text("Speed")), Th(Text("Last seen")))),
		TBody(Group(rows)),
	)
}

func errorPage(principal domain.ContextPrincipal, err error) Node {
	msg := "The dashboard could not be loaded."
	var missing *domain.PayloadMissingError
	if errors.As(err, &missing) {
		msg = "The warehouse returned no data."
	}
	return layout("Error", principal,
		H1(Text("Something went wrong")),
		P(Text(msg)),
	)
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
