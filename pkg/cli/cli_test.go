package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// === Client ===

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080/", "tok")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, "tok", c.Token)
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)
}

func TestClientDo(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{}`))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "my-jwt")
	q := url.Values{}
	q.Set("status", "completed")
	resp, err := c.Do(http.MethodPost, "/decode", q, map[string]string{"schema": "vehicle"})
	require.NoError(t, err)
	_ = resp.Body.Close()

	got := rec.last()
	assert.Equal(t, "/v1/decode", got.Path)
	assert.Equal(t, "status=completed", got.Query)
	assert.Equal(t, "Bearer my-jwt", got.Headers.Get("Authorization"))
	assert.Equal(t, "application/json", got.Headers.Get("Accept"))
	assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	assert.JSONEq(t, `{"schema":"vehicle"}`, got.Body)

	c.Token = ""
	resp, err = c.Do(http.MethodGet, "/vehicles", nil, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	got = rec.last()
	assert.Empty(t, got.Headers.Get("Authorization"))
	assert.Empty(t, got.Headers.Get("Content-Type"))
}

func TestCheckError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error body", 403, `{"code":403,"message":"access denied: requires manager","request_id":"r-1"}`, "API error (HTTP 403): access denied: requires manager (request r-1)"},
		{"plain text body", 502, "bad gateway\n", "API error (HTTP 502): bad gateway"},
		{"empty body", 500, "", "API error (HTTP 500): Internal Server Error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tc.status, Body: httptestBody(tc.body)}
			err := CheckError(resp)
			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.HTTPStatus)
			assert.Equal(t, tc.wantMsg, err.Error())
		})
	}

	require.NoError(t, CheckError(&http.Response{StatusCode: http.StatusNoContent, Body: httptestBody("")}))
}

// === Error propagation ===

func TestCLI_ErrorPropagation(t *testing.T) {
	for _, status := range []int{401, 403, 404, 500, 502} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			rec := &requestRecorder{}
			srv := httptest.NewServer(jsonHandler(rec, status, `{"code":1,"message":"nope"}`))
			defer srv.Close()

			_, err := runCLI(t, srv, "vehicles")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "API error")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, status, apiErr.HTTPStatus)
		})
	}
}

func TestCLI_ConnectionRefused(t *testing.T) {
	_, err := runCLI(t, nil, "--host", "http://127.0.0.1:1", "vehicles")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute request")
}

func TestCLI_InvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, nil, "--output", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

// === API commands ===

func TestCLI_Vehicles(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"data":[
		{"id":1,"license_plate":"FL-001-A","make":"Volvo","model":"FH16","year":2021,"status":"active","is_active":true}
	]}`))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, srv, "--token", "tok", "vehicles")
	require.NoError(t, err)
	assert.Equal(t, "/v1/vehicles", rec.last().Path)
	assert.Equal(t, "Bearer tok", rec.last().Headers.Get("Authorization"))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PLATE")
	assert.Contains(t, lines[1], "FL-001-A")
	assert.Contains(t, lines[1], "2021")
}

func TestCLI_Odometer(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"vehicle_id":2,"odometer_km":null}`))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, srv, "vehicles", "odometer", "2")
	require.NoError(t, err)
	assert.Equal(t, "/v1/vehicles/2/odometer", rec.last().Path)
	assert.Contains(t, out, "-")

	_, err = runCLI(t, srv, "vehicles", "odometer", "abc")
	require.Error(t, err)
	assert.Len(t, rec.all(), 1, "invalid id is rejected before calling the API")
}

func TestCLI_TripsFollowsPages(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page_token") == "" {
			_, _ = w.Write([]byte(`{"data":[{"id":"t-1","vehicle_id":1,"status":"completed","started_at":"2024-05-01T06:00:00Z"}],"next_page_token":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"t-2","vehicle_id":1,"status":"completed","started_at":"2024-05-01T05:00:00Z"}]}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, srv, "-o", "json", "trips", "--vehicle-id", "1", "--status", "completed", "--max-results", "1", "--all")
	require.NoError(t, err)

	reqs := rec.all()
	require.Len(t, reqs, 2)
	first, err := url.ParseQuery(reqs[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "1", first.Get("vehicle_id"))
	assert.Equal(t, "completed", first.Get("status"))
	assert.Equal(t, "1", first.Get("max_results"))
	second, err := url.ParseQuery(reqs[1].Query)
	require.NoError(t, err)
	assert.Equal(t, "p2", second.Get("page_token"))

	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "t-2", body.Data[1].ID)
}

func TestCLI_KPIs(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"total_vehicles":4,"active_vehicles":2,"average_odometer_km":67827.5,"total_trip_distance_km":299.4}`))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, srv, "kpis")
	require.NoError(t, err)
	assert.Equal(t, "/v1/dashboard/kpis", rec.last().Path)
	assert.Contains(t, out, "67827.5")
	assert.Contains(t, out, "299.4")
}

func TestCLI_Sync(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	out, err := runCLI(t, srv, "sync")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.last().Method)
	assert.Equal(t, "/v1/sync", rec.last().Path)
	assert.Contains(t, out, "synced")
}

func TestCLI_ProfileAndEnvPrecedence(t *testing.T) {
	rec := &requestRecorder{}
	srv := httptest.NewServer(jsonHandler(rec, http.StatusOK, `{"data":[]}`))
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("FLEET_CONFIG", "")
	require.NoError(t, (&Profiles{
		Current: "ci",
		Entries: map[string]Profile{"ci": {Host: srv.URL, Token: "profile-token", Output: "json"}},
	}).Save())

	t.Setenv("FLEET_HOST", "")
	t.Setenv("FLEET_OUTPUT", "")
	t.Setenv("FLEET_TOKEN", "env-token")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"vehicles"})
	done := captureStdout(t)
	require.NoError(t, cmd.Execute())
	out := done()

	assert.Equal(t, "Bearer env-token", rec.last().Headers.Get("Authorization"))
	assert.JSONEq(t, `{"data":[]}`, out, "profile output format applies")
}

// === Offline decode ===

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCLI_DecodeVehicles(t *testing.T) {
	path := writeFile(t, "vehicles.json", `{
		"columns": [{"name": "ID"}, {"name": "PLATE"}, {"name": "IS_ACTIVE"}],
		"rows": [[1, "AB-1", "TRUE"], [2, null, "no"]]
	}`)

	out, err := runCLI(t, nil, "decode", "--schema", "vehicle", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "LICENSE_PLATE")
	assert.Contains(t, lines[1], "AB-1")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "active", "status default")
	assert.Contains(t, lines[2], "false")
}

func TestCLI_DecodeSelectLatest(t *testing.T) {
	path := writeFile(t, "odometer.json", `{
		"columns": ["VEHICLE_ID", "ODOMETER", "END_TIMESTAMP"],
		"rows": [
			[1, 100, "2024-05-01T00:00:00Z"],
			[1, 0, "2024-05-03T00:00:00Z"],
			[1, 150, "2024-05-02T00:00:00Z"]
		]
	}`)

	out, err := runCLI(t, nil, "-o", "json", "decode", "--schema", "odometer", "--order-by", "end_timestamp", "--limit", "1", path)
	require.NoError(t, err)

	var body struct {
		Schema  string           `json:"schema"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "odometer", body.Schema)
	require.Len(t, body.Records, 1)
	assert.Nil(t, body.Records[0]["odometer"], "zero reading is absent")
	assert.Equal(t, "2024-05-03T00:00:00Z", body.Records[0]["end_timestamp"])

	out, err = runCLI(t, nil, "-o", "json", "decode", "--schema", "odometer", "--order-by", "odometer", "--direction", "asc", path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Records, 3, "limit 0 keeps every record")
	assert.Equal(t, 100.0, body.Records[0]["odometer"])
	assert.Nil(t, body.Records[2]["odometer"], "absent values sort last")
}

func TestCLI_DecodeStdinAndSchemaFile(t *testing.T) {
	schemaPath := writeFile(t, "fuel.yaml", `
name: fuel_event
fields:
  - name: vehicle_id
    type: integer
  - name: litres
    aliases: [volume]
    type: real
`)

	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	cmd.SetIn(bytes.NewBufferString(`{"columns":["VEHICLE_ID","VOLUME"],"rows":[["3","41.5"]]}`))
	cmd.SetArgs([]string{"-o", "json", "decode", "--schema", "fuel_event", "--schema-file", schemaPath, "-"})
	done := captureStdout(t)
	require.NoError(t, cmd.Execute())
	out := done()

	assert.JSONEq(t, `{"schema":"fuel_event","records":[{"vehicle_id":3,"litres":41.5}]}`, out)
}

func TestCLI_DecodeErrors(t *testing.T) {
	payload := writeFile(t, "p.json", `{"columns":["ID"],"rows":[[1]]}`)
	null := writeFile(t, "null.json", `null`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"schema required", []string{"decode", payload}, "--schema is required"},
		{"unknown schema", []string{"decode", "--schema", "nope", payload}, "nope"},
		{"missing file", []string{"decode", "--schema", "vehicle", "/nonexistent.json"}, "read payload"},
		{"null payload", []string{"decode", "--schema", "vehicle", null}, "decode vehicle"},
		{"unknown order field", []string{"decode", "--schema", "vehicle", "--order-by", "colour", payload}, "no field"},
		{"bad direction", []string{"decode", "--schema", "vehicle", "--order-by", "year", "--direction", "up", payload}, "invalid direction"},
		{"negative limit", []string{"decode", "--schema", "vehicle", "--order-by", "year", "--limit", "-1", payload}, "must not be negative"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, nil, tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCLI_SchemasLocal(t *testing.T) {
	out, err := runCLI(t, nil, "schemas", "--local")
	require.NoError(t, err)
	for _, name := range []string{"vehicle", "driver", "vehicle_location", "odometer", "trip_summary"} {
		assert.Contains(t, out, name)
	}
}

// === Output ===

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"name", "age"}, [][]string{{"Alice", "30"}, {"Bob", "25"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME   AGE", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "Alice  30", strings.TrimRight(lines[1], " "))

	buf.Reset()
	PrintTable(&buf, nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}

func TestFormatCell(t *testing.T) {
	km := 12.5
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var nilFloat *float64

	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"x", "x"},
		{int64(42), "42"},
		{3.25, "3.25"},
		{&km, "12.5"},
		{nilFloat, "-"},
		{true, "true"},
		{ts, "2024-05-01T08:00:00Z"},
		{time.Time{}, "-"},
		{map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatCell(tc.in))
	}
}

func httptestBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
