// MatrixForge CLI - LED Matrix Configuration and Firmware Toolkit
//
// Usage:
//   matrixforge firmware --board uno --width 16 --height 16 -o sketch.ino
//   matrixforge wiring --board esp32 --width 32 --height 32
//   matrixforge estimate --board uno --width 16 --height 16 --leds-per-meter 60
//   matrixforge boards --leds 1024
//   matrixforge serve --port 8080
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"matrixforge/api"
	"matrixforge/config"
	"matrixforge/db/postgres"
	"matrixforge/design"
	"matrixforge/firmware"
	"matrixforge/hardware/board"
	"matrixforge/hardware/bom"
	"matrixforge/hardware/guide"
	"matrixforge/hardware/matrix"
	"matrixforge/hardware/power"
	"matrixforge/hardware/wiring"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "matrixforge",
		Usage:   "LED Matrix Configuration and Firmware Toolkit - WS2812B matrices on Arduino-class boards",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				EnvVars: []string{"MATRIXFORGE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Postgres DSN for the pricing catalog (empty uses built-in catalogs)",
				EnvVars: []string{"MATRIXFORGE_POSTGRES_DSN"},
			},
		},

		Commands: []*cli.Command{
			firmwareCommand(),
			wiringCommand(),
			estimateCommand(),
			boardsCommand(),
			serveCommand(),
		},
	}
}

// =============================================================================
// SHARED FLAGS AND CATALOG LOADING
// =============================================================================

func matrixFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "board",
			Aliases:  []string{"b"},
			Usage:    fmt.Sprintf("Board id (%s)", strings.Join(board.IDs(), ", ")),
			Required: true,
		},
		&cli.IntFlag{
			Name:     "width",
			Aliases:  []string{"W"},
			Usage:    "Matrix width in LEDs",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "height",
			Aliases:  []string{"H"},
			Usage:    "Matrix height in LEDs",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "leds-per-meter",
			Value: 60,
			Usage: "Strip density (30, 60, 144, 256)",
		},
		&cli.StringFlag{
			Name:  "layout",
			Value: string(matrix.Serpentine),
			Usage: "Physical layout (serpentine, progressive)",
		},
		&cli.IntFlag{
			Name:  "data-pin",
			Usage: "Data pin override (0 uses the board default)",
		},
		&cli.IntFlag{
			Name:  "brightness",
			Value: 128,
			Usage: "Global brightness 0-255",
		},
	}
}

// catalogs loads the PSU and pricing catalogs, from Postgres when a DSN is
// set and the built-in tables otherwise. Called once per invocation.
func catalogs(c *cli.Context, cfg *config.Config) (*power.Calculator, *bom.Estimator, error) {
	dsn := c.String("postgres-dsn")
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn == "" {
		return power.NewCalculator(nil), bom.NewEstimator(nil), nil
	}

	store, err := postgres.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	tiers, err := store.LoadPsuTiers(ctx)
	if err != nil {
		return nil, nil, err
	}
	prices, err := store.LoadComponentPrices(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(prices) == 0 {
		prices = nil
	}
	return power.NewCalculator(tiers), bom.NewEstimator(prices), nil
}

func specFrom(c *cli.Context) matrix.Spec {
	return matrix.Spec{
		Width:        c.Int("width"),
		Height:       c.Int("height"),
		LedsPerMeter: c.Int("leds-per-meter"),
		Layout:       matrix.Layout(c.String("layout")),
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

// brightnessFrom bounds the flag to the 0-255 hardware range instead of
// letting the uint8 cast wrap.
func brightnessFrom(c *cli.Context) (uint8, error) {
	b := c.Int("brightness")
	if b < 0 || b > 255 {
		return 0, fmt.Errorf("brightness %d out of range 0-255", b)
	}
	return uint8(b), nil
}

// =============================================================================
// FIRMWARE COMMAND
// =============================================================================

func firmwareCommand() *cli.Command {
	flags := append(matrixFlags(),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output .ino path (default: generated filename in the current directory)",
		},
		&cli.StringSliceFlag{
			Name:  "pattern",
			Usage: "Built-in frame to embed (rainbow, gradient, checkerboard, border); repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "image",
			Usage: "Image file to resample into an embedded frame; repeatable",
		},
	)
	return &cli.Command{
		Name:   "firmware",
		Usage:  "Generate an Arduino sketch for a matrix configuration",
		Flags:  flags,
		Action: runFirmware,
	}
}

func runFirmware(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	prof, err := board.Lookup(c.String("board"))
	if err != nil {
		return err
	}
	brightness, err := brightnessFrom(c)
	if err != nil {
		return err
	}
	spec := specFrom(c)
	// Geometry must be valid before frame buffers are sized from it.
	if err := spec.Validate(cfg.Limits.MaxMatrixDimension); err != nil {
		return err
	}

	frames, err := buildFrames(c, spec)
	if err != nil {
		return err
	}

	gen := firmware.NewGenerator().WithMaxDimension(cfg.Limits.MaxMatrixDimension)
	art, err := gen.Generate(firmware.Request{
		Board:      prof,
		Matrix:     spec,
		DataPin:    c.Int("data-pin"),
		Brightness: brightness,
		Frames:     frames,
	})
	if err != nil {
		var memErr firmware.MemoryBudgetError
		if errors.As(err, &memErr) {
			return cli.Exit(fmt.Sprintf("❌ %v", memErr), 2)
		}
		return err
	}

	out := c.String("output")
	if out == "" {
		out = art.FileName
	}
	if err := os.WriteFile(out, []byte(art.Source), 0o644); err != nil {
		return fmt.Errorf("write sketch: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Wrote %s (%d bytes)\n", out, len(art.Source))
	fmt.Fprintf(os.Stderr, "📟 %s: %d LEDs, SRAM usage %.1f%%\n",
		prof.Name, spec.TotalLeds(), art.MemoryUsagePercent)
	if len(frames) > 0 {
		fmt.Fprintf(os.Stderr, "🖼  %d embedded frame(s), flash usage %.1f%%\n",
			len(frames), art.FlashUsagePercent)
	}
	for _, w := range art.Warnings {
		fmt.Fprintf(os.Stderr, "⚠️  %s\n", w)
	}

	ref := power.EstimateRefresh(spec.TotalLeds(), prof.BaudRate)
	if !prof.SupportsWireless {
		fmt.Fprintf(os.Stderr, "🔄 Serial streaming ceiling: %d FPS at %d baud\n", ref.MaxFPS, prof.BaudRate)
	}
	return nil
}

func buildFrames(c *cli.Context, spec matrix.Spec) ([]*design.Frame, error) {
	var frames []*design.Frame

	for _, name := range c.StringSlice("pattern") {
		f := design.NewFrame(name, spec.Width, spec.Height)
		switch strings.ToLower(name) {
		case "rainbow":
			f.Rainbow()
		case "gradient":
			f.Gradient(design.RGB{R: 255}, design.RGB{B: 255}, true)
		case "checkerboard":
			f.Checkerboard(design.RGB{R: 255, G: 255, B: 255}, design.RGB{}, 2)
		case "border":
			f.Border(design.RGB{G: 255}, 1)
		default:
			return nil, fmt.Errorf("unknown pattern %q (rainbow, gradient, checkerboard, border)", name)
		}
		frames = append(frames, f)
	}

	for i, path := range c.StringSlice("image") {
		f, err := design.LoadImage(path, fmt.Sprintf("image%d", i), spec.Width, spec.Height)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// =============================================================================
// WIRING COMMAND
// =============================================================================

func wiringCommand() *cli.Command {
	flags := append(matrixFlags(),
		&cli.StringFlag{
			Name:  "psu",
			Usage: "PSU tier name override (e.g. 5V10A); default is the recommendation",
		},
		&cli.BoolFlag{
			Name:  "diagram-only",
			Usage: "Print only the Mermaid diagram, not the full guide",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the guide to a file instead of stdout",
		},
	)
	return &cli.Command{
		Name:   "wiring",
		Usage:  "Produce the wiring diagram and assembly guide",
		Flags:  flags,
		Action: runWiring,
	}
}

func runWiring(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	calc, est, err := catalogs(c, cfg)
	if err != nil {
		return err
	}

	prof, err := board.Lookup(c.String("board"))
	if err != nil {
		return err
	}
	spec := specFrom(c)
	if err := spec.Validate(cfg.Limits.MaxMatrixDimension); err != nil {
		return err
	}

	brightness, err := brightnessFrom(c)
	if err != nil {
		return err
	}
	budget := calc.Compute(spec, brightness)

	builder := wiring.NewBuilder()
	if pin := c.Int("data-pin"); pin != 0 {
		builder = builder.WithDataPin(pin)
	}
	if name := c.String("psu"); name != "" {
		tier, ok := calc.Tier(name)
		if !ok {
			return fmt.Errorf("unknown PSU tier %q", name)
		}
		builder = builder.WithPsu(tier)
	}
	topo := builder.Build(spec, prof, budget)

	var doc string
	if c.Bool("diagram-only") {
		doc = wiring.Render(topo)
	} else {
		bomEst, err := est.Estimate(topo)
		if err != nil {
			return err
		}
		doc = guide.Build(topo, budget, bomEst, time.Now().UTC())
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write guide: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✅ Wrote %s\n", out)
		return nil
	}
	fmt.Print(doc)
	return nil
}

// =============================================================================
// ESTIMATE COMMAND
// =============================================================================

func estimateCommand() *cli.Command {
	flags := append(matrixFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "table",
			Usage:   "Output format (table, json, markdown)",
		},
		&cli.StringFlag{
			Name:  "psu",
			Usage: "PSU tier name override",
		},
	)
	return &cli.Command{
		Name:   "estimate",
		Usage:  "Estimate power budget and bill of materials",
		Flags:  flags,
		Action: runEstimate,
	}
}

func runEstimate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	calc, est, err := catalogs(c, cfg)
	if err != nil {
		return err
	}

	prof, err := board.Lookup(c.String("board"))
	if err != nil {
		return err
	}
	spec := specFrom(c)
	if err := spec.Validate(cfg.Limits.MaxMatrixDimension); err != nil {
		return err
	}

	brightness, err := brightnessFrom(c)
	if err != nil {
		return err
	}
	budget := calc.Compute(spec, brightness)

	builder := wiring.NewBuilder()
	if name := c.String("psu"); name != "" {
		tier, ok := calc.Tier(name)
		if !ok {
			return fmt.Errorf("unknown PSU tier %q", name)
		}
		builder = builder.WithPsu(tier)
	}
	topo := builder.Build(spec, prof, budget)

	bomEst, err := est.Estimate(topo)
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "json":
		return estimateJSON(budget, bomEst)
	case "markdown":
		return estimateMarkdown(topo, budget, bomEst)
	default:
		return estimateTable(topo, budget, bomEst)
	}
}

type estimateOutput struct {
	TotalLeds           int        `json:"total_leds"`
	MaxCurrentAmps      float64    `json:"max_current_amps"`
	MaxPowerWatts       float64    `json:"max_power_watts"`
	RequiredCurrentAmps float64    `json:"required_current_amps"`
	RecommendedPsu      string     `json:"recommended_psu"`
	CostLow             string     `json:"cost_low"`
	CostCenter          string     `json:"cost_center"`
	CostHigh            string     `json:"cost_high"`
	Items               []bom.Item `json:"items"`
	Warnings            []string   `json:"warnings"`
}

func estimateJSON(budget power.Budget, est *bom.Estimate) error {
	out := estimateOutput{
		TotalLeds:           budget.TotalLeds,
		MaxCurrentAmps:      budget.MaxCurrentAmps,
		MaxPowerWatts:       budget.MaxPowerWatts,
		RequiredCurrentAmps: budget.RequiredCurrentAmps,
		RecommendedPsu:      budget.RecommendedTier.Name,
		CostLow:             est.CostLow.StringFixed(2),
		CostCenter:          est.CostCenter.StringFixed(2),
		CostHigh:            est.CostHigh.StringFixed(2),
		Items:               est.Items,
		Warnings:            append(append([]string{}, budget.Warnings...), est.Warnings...),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func estimateTable(topo *wiring.Topology, budget power.Budget, est *bom.Estimate) error {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 💡 LED MATRIX ESTIMATE                        ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Matrix:                %-38s ║\n",
		fmt.Sprintf("%d×%d (%d LEDs)", topo.Matrix.Width, topo.Matrix.Height, budget.TotalLeds))
	fmt.Printf("║  Controller:            %-38s ║\n", topo.Board.Name)
	fmt.Printf("║  Max Current:           %-38s ║\n", fmt.Sprintf("%.2fA", budget.MaxCurrentAmps))
	fmt.Printf("║  Max Power:             %-38s ║\n", fmt.Sprintf("%.1fW", budget.MaxPowerWatts))
	fmt.Printf("║  Required (w/ margin):  %-38s ║\n", fmt.Sprintf("%.2fA", budget.RequiredCurrentAmps))
	fmt.Printf("║  Power Supply:          %-38s ║\n", topo.Psu.Name)
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  BILL OF MATERIALS                                            ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	for _, item := range est.Items {
		fmt.Printf("║  %-40s %2d × $%-12s ║\n",
			truncate(item.Name, 40), item.Quantity, item.UnitCost.StringFixed(2))
	}
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Estimated Cost:        %-38s ║\n",
		fmt.Sprintf("$%s – $%s", est.CostLow.StringFixed(2), est.CostHigh.StringFixed(2)))
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")

	for _, w := range budget.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	for _, w := range est.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	return nil
}

func estimateMarkdown(topo *wiring.Topology, budget power.Budget, est *bom.Estimate) error {
	fmt.Println("## 💡 LED Matrix Estimate")
	fmt.Println()
	fmt.Println("| Metric | Value |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| **Matrix** | %d×%d (%d LEDs) |\n", topo.Matrix.Width, topo.Matrix.Height, budget.TotalLeds)
	fmt.Printf("| **Controller** | %s |\n", topo.Board.Name)
	fmt.Printf("| **Max Current** | %.2fA |\n", budget.MaxCurrentAmps)
	fmt.Printf("| **Max Power** | %.1fW |\n", budget.MaxPowerWatts)
	fmt.Printf("| **Power Supply** | %s |\n", topo.Psu.Name)
	fmt.Printf("| **Estimated Cost** | $%s – $%s |\n", est.CostLow.StringFixed(2), est.CostHigh.StringFixed(2))
	fmt.Println()
	fmt.Println("### Bill of Materials")
	fmt.Println()
	fmt.Println("| Component | Qty | Unit | Total |")
	fmt.Println("|-----------|----:|-----:|------:|")
	for _, item := range est.Items {
		fmt.Printf("| %s | %d | $%s | $%s |\n",
			item.Name, item.Quantity, item.UnitCost.StringFixed(2), item.TotalCost.StringFixed(2))
	}
	for _, w := range append(append([]string{}, budget.Warnings...), est.Warnings...) {
		fmt.Printf("\n> ⚠️ %s\n", w)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// =============================================================================
// BOARDS COMMAND
// =============================================================================

func boardsCommand() *cli.Command {
	return &cli.Command{
		Name:  "boards",
		Usage: "List supported boards, optionally ranked for an LED count",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "leds",
				Usage: "Rank boards for this total LED count",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
		},
		Action: runBoards,
	}
}

func runBoards(c *cli.Context) error {
	leds := c.Int("leds")

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if leds > 0 {
			return enc.Encode(board.Recommend(leds))
		}
		return enc.Encode(board.Profiles())
	}

	if leds > 0 {
		fmt.Printf("Boards ranked for %d LEDs (%d bytes LED buffer):\n\n", leds, leds*firmware.BytesPerLed)
		for _, rec := range board.Recommend(leds) {
			mark := "✅"
			if !rec.Suitable {
				mark = "❌"
			}
			fmt.Printf("  %s %-22s %s logic, %6d B SRAM, %.0f%% free, max %d LEDs\n",
				mark, rec.Board.Name, rec.Board.LogicVoltage,
				rec.Board.SRAMBytes, rec.MemoryHeadroom*100, rec.Board.MaxRecommendedLeds)
		}
		return nil
	}

	fmt.Printf("Supported boards (catalog %s):\n\n", board.CatalogVersion)
	for _, p := range board.Profiles() {
		shifter := ""
		if p.NeedsLevelShifter() {
			shifter = ", needs level shifter"
		}
		wireless := ""
		if p.SupportsWireless {
			wireless = ", wireless"
		}
		fmt.Printf("  %-10s %-22s %s logic, %d B SRAM, pin %d, max %d LEDs%s%s\n",
			p.ID, p.Name, p.LogicVoltage, p.SRAMBytes, p.DefaultDataPin,
			p.MaxRecommendedLeds, shifter, wireless)
	}
	return nil
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the MatrixForge API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Usage:   "API server port (overrides config)",
				EnvVars: []string{"MATRIXFORGE_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Usage:   "Comma-separated list of allowed CORS origins (overrides config)",
				EnvVars: []string{"MATRIXFORGE_CORS_ORIGINS"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	calc, est, err := catalogs(c, cfg)
	if err != nil {
		return err
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Port = cfg.Server.Port
	apiCfg.CORSOrigins = cfg.Server.CORSOrigins
	apiCfg.MaxMatrixDim = cfg.Limits.MaxMatrixDimension

	if port := c.Int("port"); port > 0 {
		apiCfg.Port = port
	}
	if origins := c.String("cors-origins"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		apiCfg.CORSOrigins = parts
	}

	server := api.NewServer(calc, est, apiCfg)
	return server.StartWithGracefulShutdown()
}
