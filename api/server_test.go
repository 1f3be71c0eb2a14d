package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer() *Server {
	return NewServer(nil, nil, nil)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
	if body["catalog_version"] == "" {
		t.Error("missing catalog_version")
	}
}

func TestHandleBoards(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.handleBoards(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boards", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Boards          []json.RawMessage `json:"boards"`
		Recommendations []json.RawMessage `json:"recommendations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Boards) != 5 {
		t.Errorf("boards = %d, want 5", len(body.Boards))
	}
	if len(body.Recommendations) != 0 {
		t.Error("recommendations present without a leds parameter")
	}

	rec = httptest.NewRecorder()
	s.handleBoards(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boards?leds=1024", nil))
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Recommendations) != 5 {
		t.Errorf("recommendations = %d, want 5", len(body.Recommendations))
	}

	rec = httptest.NewRecorder()
	s.handleBoards(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boards?leds=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative leds status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.handleBoards(rec, httptest.NewRequest(http.MethodPost, "/api/v1/boards", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestHandleEstimate(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.handleEstimate, "/api/v1/estimate", HardwareRequest{
		Board: "uno", Width: 16, Height: 16, LedsPerMeter: 60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp EstimateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.CostCenter != "169.50" {
		t.Errorf("CostCenter = %q, want 169.50", resp.CostCenter)
	}
	if resp.Budget.TotalLeds != 256 {
		t.Errorf("TotalLeds = %d, want 256", resp.Budget.TotalLeds)
	}
	if len(resp.Items) == 0 {
		t.Error("empty BOM")
	}
}

func TestHandleEstimateErrors(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name       string
		req        HardwareRequest
		wantStatus int
	}{
		{"unknown board", HardwareRequest{Board: "teensy", Width: 16, Height: 16, LedsPerMeter: 60}, http.StatusBadRequest},
		{"zero width", HardwareRequest{Board: "uno", Width: 0, Height: 16, LedsPerMeter: 60}, http.StatusBadRequest},
		{"oversize", HardwareRequest{Board: "uno", Width: 200, Height: 16, LedsPerMeter: 60}, http.StatusBadRequest},
		{"unknown psu", HardwareRequest{Board: "uno", Width: 16, Height: 16, LedsPerMeter: 60, PowerSupply: "5V99A"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s.handleEstimate, "/api/v1/estimate", tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate", nil)
	rec := httptest.NewRecorder()
	s.handleEstimate(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestHandleWiring(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.handleWiring, "/api/v1/wiring", HardwareRequest{
		Board: "esp32", Width: 32, Height: 32, LedsPerMeter: 60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp WiringResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.NeedsLevelShifter {
		t.Error("esp32 response should need a level shifter")
	}
	if !strings.HasPrefix(resp.Diagram, "graph TD") {
		t.Errorf("Diagram does not start with graph TD: %q", resp.Diagram[:20])
	}
	if !strings.Contains(resp.Guide, "## Wiring Diagram") {
		t.Error("guide missing its diagram section")
	}
	// 1024 LEDs exceed the largest PSU tier.
	found := false
	for _, w := range resp.Warnings {
		if strings.Contains(w, "undersized") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings %v missing undersized PSU", resp.Warnings)
	}
}

func TestHandleFirmware(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
		HardwareRequest: HardwareRequest{Board: "uno", Width: 16, Height: 16, LedsPerMeter: 60},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp FirmwareResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.FileName != "led_matrix_uno_16x16.ino" {
		t.Errorf("FileName = %q", resp.FileName)
	}
	if resp.MemoryUsagePercent != 37.5 {
		t.Errorf("MemoryUsagePercent = %v, want 37.5", resp.MemoryUsagePercent)
	}
	if !strings.Contains(resp.Source, "#define NUM_LEDS") {
		t.Error("source missing NUM_LEDS define")
	}
}

func TestHandleFirmwareRejectsBadGeometryWithFrames(t *testing.T) {
	// Malformed geometry must be rejected before frame buffers are sized
	// from it, even when the request carries frames.
	s := newTestServer()
	tests := []struct {
		name          string
		width, height int
	}{
		{"negative width", -1, 8},
		{"negative height", 8, -1},
		{"zero width", 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
				HardwareRequest: HardwareRequest{Board: "uno", Width: tt.width, Height: tt.height, LedsPerMeter: 60},
				Frames:          []FrameInput{{Name: "f", Rows: [][]string{}}},
			})
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleFirmwareMemoryLimit(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
		HardwareRequest: HardwareRequest{Board: "uno", Width: 64, Height: 64, LedsPerMeter: 60},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestHandleFirmwareWithFrames(t *testing.T) {
	s := newTestServer()
	rows := make([][]string, 4)
	for y := range rows {
		rows[y] = make([]string, 4)
		for x := range rows[y] {
			rows[y][x] = "#ff0000"
		}
	}
	rec := postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
		HardwareRequest: HardwareRequest{Board: "uno", Width: 4, Height: 4, LedsPerMeter: 60},
		Frames:          []FrameInput{{Name: "red", Rows: rows}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp FirmwareResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Source, "showFrame0") {
		t.Error("source missing the frame subroutine")
	}
}

func TestHandleFirmwareFrameValidation(t *testing.T) {
	s := newTestServer()

	// Row count mismatch.
	rec := postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
		HardwareRequest: HardwareRequest{Board: "uno", Width: 4, Height: 4, LedsPerMeter: 60},
		Frames:          []FrameInput{{Name: "short", Rows: [][]string{{"#000000"}}}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("row mismatch status = %d, want 400", rec.Code)
	}

	// Bad hex pixel.
	rows := [][]string{
		{"#000000", "#000000"},
		{"#000000", "nothex"},
	}
	rec = postJSON(t, s.handleFirmware, "/api/v1/firmware", FirmwareRequest{
		HardwareRequest: HardwareRequest{Board: "uno", Width: 2, Height: 2, LedsPerMeter: 60},
		Frames:          []FrameInput{{Name: "bad", Rows: rows}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad pixel status = %d, want 400", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer()
	handler := s.corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/estimate", nil)
	req.Header.Set("Origin", "https://matrix.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://matrix.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
}
