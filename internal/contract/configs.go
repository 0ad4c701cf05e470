package contract

import (
	"fmt"
	"maps"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/bidsim/core/algo"
	"github.com/huangsam/bidsim/core/montecarlo"
	"github.com/huangsam/bidsim/core/optimizer"
	"github.com/huangsam/bidsim/schema"
)

// Default values for configuration.
const (
	DefaultPrecision  = 2
	DefaultListenAddr = "localhost:8088"
	DefaultLogFormat  = "text"
)

// DefaultWorkers is the default number of concurrent Monte Carlo workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// validate is shared because it caches struct metadata.
var validate = validator.New()

// Config holds the runtime configuration for every command.
// This struct remains the "final, validated" config.
type Config struct {
	LotID      string
	LotFile    string
	InputsFile string

	Workers    int
	Seed       uint64
	KeepTrials bool

	Simulation schema.SimulationParams
	Optimize   schema.OptimizeParams

	Step                 float64
	MaxDiscount          float64
	Validate             bool
	ValidationIterations int
	DiscountStd          float64
	TechStd              float64

	// Discount and BestDiscount price the bid for the score command.
	// A negative BestDiscount means "use my own price".
	Discount     float64
	BestDiscount float64

	Economic EconomicInput

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Listen    string
	LogFormat string
}

// EconomicInput are the arguments of a standalone economic score.
type EconomicInput struct {
	Base    float64 `validate:"gte=0"`
	Offered float64
	Best    float64
	Alpha   float64
	MaxEcon float64 `validate:"gte=0"`
	Formula schema.FormulaID
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	LotID string

	// --- Fields from rootCmd.PersistentFlags() ---
	LotFile        string `mapstructure:"lot-file"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Workers        int    `mapstructure:"workers"`
	Seed           uint64 `mapstructure:"seed"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`

	// --- Fields from scoreCmd.Flags() ---
	InputsFile   string  `mapstructure:"inputs"`
	Discount     float64 `mapstructure:"discount"`
	BestDiscount float64 `mapstructure:"best-discount"`

	// --- Fields from economicCmd.Flags() ---
	Base    float64 `mapstructure:"base"`
	Offered float64 `mapstructure:"offered"`
	Best    float64 `mapstructure:"best"`
	Alpha   float64 `mapstructure:"alpha"`
	MaxEcon float64 `mapstructure:"max-econ"`
	Formula string  `mapstructure:"formula"`

	// --- Fields from simulateCmd.Flags() ---
	MyDiscount       float64 `mapstructure:"my-discount"`
	MyTech           float64 `mapstructure:"my-tech"`
	CompDiscountMean float64 `mapstructure:"comp-discount-mean"`
	CompDiscountStd  float64 `mapstructure:"comp-discount-std"`
	CompTechMean     float64 `mapstructure:"comp-tech-mean"`
	CompTechStd      float64 `mapstructure:"comp-tech-std"`
	Iterations       int     `mapstructure:"iterations"`
	KeepTrials       bool    `mapstructure:"keep-trials"`

	// --- Fields from optimizeCmd.Flags() ---
	CompTech             float64 `mapstructure:"comp-tech"`
	CompDiscount         float64 `mapstructure:"comp-discount"`
	MarketBest           float64 `mapstructure:"market-best"`
	Step                 float64 `mapstructure:"step"`
	MaxDiscount          float64 `mapstructure:"max-discount"`
	Validate             bool    `mapstructure:"validate"`
	ValidationIterations int     `mapstructure:"validation-iterations"`
	DiscountStd          float64 `mapstructure:"discount-std"`
	TechStd              float64 `mapstructure:"tech-std"`

	// --- Fields from serveCmd.Flags() ---
	Listen    string `mapstructure:"listen"`
	LogFormat string `mapstructure:"log-format"`
}

// Clone returns a copy of the Config struct. Nothing in it is shared by reference.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processEngineInputs(cfg, input); err != nil {
		return err
	}
	return processEconomicInputs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend lower-cases and validates a backend name.
func ParseBackend(raw string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateBackendConfigs validates lot store and run history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Lot Store Validation ---
	backend, err := ParseBackend(input.StoreBackend)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Run History Validation ---
	if input.RunsBackend == "" {
		cfg.RunsBackend = schema.NoneBackend
		return nil
	}
	backend, err = ParseBackend(input.RunsBackend)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Lots and runs use different tables, but SQLite files are replaced wholesale on clear.
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		lotPath := cfg.StoreDBConnect
		if lotPath == "" {
			lotPath = GetLotDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if lotPath == runsPath {
			return fmt.Errorf("lot and run storage must use different SQLite database files. Both resolve to %q", lotPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates presentation fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.LotID = strings.TrimSpace(input.LotID)
	cfg.LotFile = strings.TrimSpace(input.LotFile)
	cfg.InputsFile = strings.TrimSpace(input.InputsFile)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Seed = input.Seed
	cfg.KeepTrials = input.KeepTrials

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 0 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	cfg.Listen = input.Listen
	if cfg.Listen == "" {
		cfg.Listen = DefaultListenAddr
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = DefaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format '%s'. must be text or json", input.LogFormat)
	}
	return nil
}

// processEngineInputs copies simulation and optimizer knobs. Out-of-range
// business values are clamped downstream, so only caller bugs fail here.
func processEngineInputs(cfg *Config, input *ConfigRawInput) error {
	if err := requireFinite(map[string]float64{
		"my-discount":        input.MyDiscount,
		"my-tech":            input.MyTech,
		"comp-discount-mean": input.CompDiscountMean,
		"comp-discount-std":  input.CompDiscountStd,
		"comp-tech-mean":     input.CompTechMean,
		"comp-tech-std":      input.CompTechStd,
		"comp-tech":          input.CompTech,
		"comp-discount":      input.CompDiscount,
		"market-best":        input.MarketBest,
		"step":               input.Step,
		"max-discount":       input.MaxDiscount,
		"discount-std":       input.DiscountStd,
		"tech-std":           input.TechStd,
		"discount":           input.Discount,
		"best-discount":      input.BestDiscount,
	}); err != nil {
		return err
	}
	if input.Iterations < 0 {
		return fmt.Errorf("iterations must be positive (received %d)", input.Iterations)
	}
	iterations := input.Iterations
	if iterations == 0 {
		iterations = montecarlo.DefaultIterations
	}
	if iterations > montecarlo.MaxIterations {
		return fmt.Errorf("iterations cannot exceed %d (received %d)", montecarlo.MaxIterations, iterations)
	}

	cfg.Simulation = schema.SimulationParams{
		MyDiscount:         input.MyDiscount,
		MyTechScore:        input.MyTech,
		CompetitorDiscount: schema.NormalDist{Mean: input.CompDiscountMean, Std: input.CompDiscountStd},
		CompetitorTech:     schema.NormalDist{Mean: input.CompTechMean, Std: input.CompTechStd},
		Iterations:         iterations,
	}
	cfg.Optimize = schema.OptimizeParams{
		MyTechScore:         input.MyTech,
		CompetitorTechScore: input.CompTech,
		CompetitorDiscount:  input.CompDiscount,
		MarketBestDiscount:  input.MarketBest,
	}

	if input.Step < 0 || input.Step > 100 {
		return fmt.Errorf("step must be between 0 and 100 (received %v)", input.Step)
	}
	cfg.Step = input.Step
	if cfg.Step == 0 {
		cfg.Step = optimizer.DefaultStep
	}
	if input.MaxDiscount < 0 || input.MaxDiscount > 100 {
		return fmt.Errorf("max-discount must be between 0 and 100 (received %v)", input.MaxDiscount)
	}
	cfg.MaxDiscount = input.MaxDiscount
	if cfg.MaxDiscount == 0 {
		cfg.MaxDiscount = optimizer.DefaultMaxDiscount
	}
	if input.ValidationIterations < 0 || input.ValidationIterations > montecarlo.MaxIterations {
		return fmt.Errorf("validation-iterations must be between 0 and %d (received %d)", montecarlo.MaxIterations, input.ValidationIterations)
	}
	cfg.Validate = input.Validate
	cfg.ValidationIterations = input.ValidationIterations
	cfg.DiscountStd = input.DiscountStd
	cfg.TechStd = input.TechStd

	cfg.Discount = algo.ClampDiscount(input.Discount)
	cfg.BestDiscount = input.BestDiscount
	if cfg.BestDiscount >= 0 {
		cfg.BestDiscount = algo.ClampDiscount(cfg.BestDiscount)
	}
	return nil
}

// requireFinite rejects NaN and infinities, reporting flags in name order.
func requireFinite(values map[string]float64) error {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if v := values[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number (received %v)", name, v)
		}
	}
	return nil
}

// processEconomicInputs validates the standalone economic command arguments.
func processEconomicInputs(cfg *Config, input *ConfigRawInput) error {
	econ := EconomicInput{
		Base:    input.Base,
		Offered: input.Offered,
		Best:    input.Best,
		Alpha:   input.Alpha,
		MaxEcon: input.MaxEcon,
		Formula: schema.FormulaID(strings.ToLower(input.Formula)),
	}
	if econ.Formula == "" {
		econ.Formula = schema.InterpolationFormula
	}
	if !algo.KnownFormula(econ.Formula) {
		return fmt.Errorf("invalid formula '%s'. must be one of %s", input.Formula, strings.Join(formulaNames(), ", "))
	}
	if err := requireFinite(map[string]float64{
		"base":     econ.Base,
		"offered":  econ.Offered,
		"best":     econ.Best,
		"alpha":    econ.Alpha,
		"max-econ": econ.MaxEcon,
	}); err != nil {
		return err
	}
	if err := validate.Struct(econ); err != nil {
		return fmt.Errorf("invalid economic inputs: %w", err)
	}
	cfg.Economic = econ
	return nil
}

func formulaNames() []string {
	ids := algo.FormulaIDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
