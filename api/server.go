// Package api provides the HTTP API server for MatrixForge
// Thin request/response layer over the pure hardware and firmware engines
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matrixforge/design"
	"matrixforge/firmware"
	"matrixforge/hardware/board"
	"matrixforge/hardware/bom"
	"matrixforge/hardware/guide"
	"matrixforge/hardware/matrix"
	"matrixforge/hardware/power"
	"matrixforge/hardware/wiring"
)

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	calculator *power.Calculator
	estimator  *bom.Estimator
	generator  *firmware.Generator
	config     *Config
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
	MaxMatrixDim   int
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
		CORSOrigins:    []string{"*"},
		MaxMatrixDim:   matrix.DefaultMaxDimension,
	}
}

// NewServer creates a server over the given catalogs. Nil catalogs use the
// built-in defaults; they are read-only after this call.
func NewServer(calc *power.Calculator, est *bom.Estimator, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if calc == nil {
		calc = power.NewCalculator(nil)
	}
	if est == nil {
		est = bom.NewEstimator(nil)
	}
	return &Server{
		calculator: calc,
		estimator:  est,
		generator:  firmware.NewGenerator().WithMaxDimension(config.MaxMatrixDim),
		config:     config,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/boards", s.handleBoards)
	mux.HandleFunc("/api/v1/firmware", s.handleFirmware)
	mux.HandleFunc("/api/v1/wiring", s.handleWiring)
	mux.HandleFunc("/api/v1/estimate", s.handleEstimate)

	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	fmt.Printf("🚀 MatrixForge API server starting on port %d\n", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains on SIGINT/SIGTERM
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		fmt.Println("\n📴 Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH + BOARDS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":          "healthy",
		"catalog_version": board.CatalogVersion,
	})
}

func (s *Server) handleBoards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type boardsResponse struct {
		Boards          []board.Profile        `json:"boards"`
		Recommendations []board.Recommendation `json:"recommendations,omitempty"`
	}
	resp := boardsResponse{Boards: board.Profiles()}

	if ledsParam := r.URL.Query().Get("leds"); ledsParam != "" {
		var leds int
		if _, err := fmt.Sscanf(ledsParam, "%d", &leds); err != nil || leds <= 0 {
			s.jsonError(w, http.StatusBadRequest, "leds must be a positive integer")
			return
		}
		resp.Recommendations = board.Recommend(leds)
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// SHARED REQUEST HANDLING
// =============================================================================

// HardwareRequest is the shared input for wiring and estimate operations
type HardwareRequest struct {
	Board        string `json:"board"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	LedsPerMeter int    `json:"leds_per_meter"`
	PowerSupply  string `json:"power_supply,omitempty"`
	DataPin      int    `json:"data_pin,omitempty"`
	Brightness   *uint8 `json:"brightness,omitempty"`
	Layout       string `json:"layout,omitempty"`
}

// resolve validates the request and computes the topology and budget shared
// by the wiring and estimate endpoints.
func (s *Server) resolve(req HardwareRequest) (*wiring.Topology, power.Budget, error) {
	prof, err := board.Lookup(req.Board)
	if err != nil {
		return nil, power.Budget{}, err
	}

	spec := matrix.Spec{
		Width:        req.Width,
		Height:       req.Height,
		LedsPerMeter: req.LedsPerMeter,
		Layout:       matrix.Layout(req.Layout),
	}
	if err := spec.Validate(s.config.MaxMatrixDim); err != nil {
		return nil, power.Budget{}, err
	}

	brightness := uint8(128)
	if req.Brightness != nil {
		brightness = *req.Brightness
	}
	budget := s.calculator.Compute(spec, brightness)

	builder := wiring.NewBuilder()
	if req.DataPin != 0 {
		builder = builder.WithDataPin(req.DataPin)
	}
	if req.PowerSupply != "" {
		tier, ok := s.calculator.Tier(req.PowerSupply)
		if !ok {
			return nil, power.Budget{}, matrix.ValidationError{
				Field: "power_supply", Reason: fmt.Sprintf("unknown tier %q", req.PowerSupply),
			}
		}
		if tier.CurrentAmps < budget.RequiredCurrentAmps {
			budget.Warnings = append(budget.Warnings, fmt.Sprintf(
				"selected PSU %s (%gA) is below the required %.2fA", tier.Name, tier.CurrentAmps, budget.RequiredCurrentAmps))
		}
		builder = builder.WithPsu(tier)
	}

	return builder.Build(spec, prof, budget), budget, nil
}

// =============================================================================
// WIRING ENDPOINT
// =============================================================================

// WiringResponse carries the diagram, full guide and topology
type WiringResponse struct {
	Diagram           string           `json:"diagram"`
	Guide             string           `json:"guide"`
	NeedsLevelShifter bool             `json:"needs_level_shifter"`
	Topology          *wiring.Topology `json:"topology"`
	Budget            power.Budget     `json:"power_budget"`
	Warnings          []string         `json:"warnings"`
}

func (s *Server) handleWiring(w http.ResponseWriter, r *http.Request) {
	var req HardwareRequest
	if !s.decode(w, r, &req) {
		return
	}

	topo, budget, err := s.resolve(req)
	if err != nil {
		s.engineError(w, err)
		return
	}

	est, err := s.estimator.Estimate(topo)
	if err != nil {
		s.engineError(w, err)
		return
	}

	resp := WiringResponse{
		Diagram:           wiring.Render(topo),
		Guide:             guide.Build(topo, budget, est, time.Now().UTC()),
		NeedsLevelShifter: topo.NeedsLevelShifter,
		Topology:          topo,
		Budget:            budget,
		Warnings:          collectWarnings(budget.Warnings, est.Warnings),
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// =============================================================================
// ESTIMATE ENDPOINT
// =============================================================================

// EstimateResponse is the BOM with its cost range
type EstimateResponse struct {
	Items      []bom.Item   `json:"items"`
	CostLow    string       `json:"cost_low"`
	CostCenter string       `json:"cost_center"`
	CostHigh   string       `json:"cost_high"`
	Budget     power.Budget `json:"power_budget"`
	Warnings   []string     `json:"warnings"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req HardwareRequest
	if !s.decode(w, r, &req) {
		return
	}

	topo, budget, err := s.resolve(req)
	if err != nil {
		s.engineError(w, err)
		return
	}

	est, err := s.estimator.Estimate(topo)
	if err != nil {
		s.engineError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, EstimateResponse{
		Items:      est.Items,
		CostLow:    est.CostLow.StringFixed(2),
		CostCenter: est.CostCenter.StringFixed(2),
		CostHigh:   est.CostHigh.StringFixed(2),
		Budget:     budget,
		Warnings:   collectWarnings(budget.Warnings, est.Warnings),
	})
}

// =============================================================================
// FIRMWARE ENDPOINT
// =============================================================================

// FirmwareRequest adds custom frames to the shared hardware request.
// Frame rows are hex color strings, outer slice is rows top to bottom.
type FirmwareRequest struct {
	HardwareRequest
	Frames []FrameInput `json:"frames,omitempty"`
}

// FrameInput is one named frame of hex pixel rows
type FrameInput struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// FirmwareResponse is the generated artifact
type FirmwareResponse struct {
	ID                 string   `json:"id"`
	FileName           string   `json:"file_name"`
	Source             string   `json:"source"`
	MemoryUsagePercent float64  `json:"memory_usage_percent"`
	FlashUsagePercent  float64  `json:"flash_usage_percent,omitempty"`
	Warnings           []string `json:"warnings"`
}

func (s *Server) handleFirmware(w http.ResponseWriter, r *http.Request) {
	var req FirmwareRequest
	if !s.decode(w, r, &req) {
		return
	}

	prof, err := board.Lookup(req.Board)
	if err != nil {
		s.engineError(w, err)
		return
	}

	spec := matrix.Spec{
		Width:        req.Width,
		Height:       req.Height,
		LedsPerMeter: req.LedsPerMeter,
		Layout:       matrix.Layout(req.Layout),
	}
	// Geometry must be valid before any frame buffers are sized from it.
	if err := spec.Validate(s.config.MaxMatrixDim); err != nil {
		s.engineError(w, err)
		return
	}

	frames, err := decodeFrames(req.Frames, spec)
	if err != nil {
		s.engineError(w, err)
		return
	}

	brightness := uint8(128)
	if req.Brightness != nil {
		brightness = *req.Brightness
	}

	art, err := s.generator.Generate(firmware.Request{
		Board:      prof,
		Matrix:     spec,
		DataPin:    req.DataPin,
		Brightness: brightness,
		Frames:     frames,
	})
	if err != nil {
		s.engineError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, FirmwareResponse{
		ID:                 art.ID.String(),
		FileName:           art.FileName,
		Source:             art.Source,
		MemoryUsagePercent: art.MemoryUsagePercent,
		FlashUsagePercent:  art.FlashUsagePercent,
		Warnings:           art.Warnings,
	})
}

func decodeFrames(inputs []FrameInput, spec matrix.Spec) ([]*design.Frame, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	frames := make([]*design.Frame, 0, len(inputs))
	for i, in := range inputs {
		f := design.NewFrame(in.Name, spec.Width, spec.Height)
		if len(in.Rows) != spec.Height {
			return nil, matrix.ValidationError{
				Field:  "frames",
				Reason: fmt.Sprintf("frame %d has %d rows, matrix height is %d", i, len(in.Rows), spec.Height),
			}
		}
		for y, row := range in.Rows {
			if len(row) != spec.Width {
				return nil, matrix.ValidationError{
					Field:  "frames",
					Reason: fmt.Sprintf("frame %d row %d has %d pixels, matrix width is %d", i, y, len(row), spec.Width),
				}
			}
			for x, hex := range row {
				c, err := design.ParseHex(hex)
				if err != nil {
					return nil, matrix.ValidationError{
						Field:  "frames",
						Reason: fmt.Sprintf("frame %d pixel (%d,%d): %v", i, x, y, err),
					}
				}
				f.Set(x, y, c)
			}
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return false
	}
	return true
}

// engineError maps the engine error taxonomy onto HTTP status codes:
// validation and unknown-board are 400, the memory hard limit is 422.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	var unknownBoard board.UnknownBoardError
	var validation matrix.ValidationError
	var memory firmware.MemoryBudgetError

	switch {
	case errors.As(err, &unknownBoard), errors.As(err, &validation):
		s.jsonError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &memory):
		s.jsonError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.jsonError(w, http.StatusInternalServerError, err.Error())
	}
}

func collectWarnings(lists ...[]string) []string {
	out := make([]string, 0)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
