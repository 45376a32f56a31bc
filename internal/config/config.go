package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ctitools/arctic"
)

// Environment variables that override file settings.
const (
	EnvVerbosity = "ARCTIC_VERBOSITY"
	EnvWorkers   = "ARCTIC_WORKERS"
)

// Config is a complete arctic run configuration.
type Config struct {
	// Verbosity is 0 (silent), 1 (standard) or 2 (extra detail).
	Verbosity int `yaml:"verbosity" validate:"gte=0,lte=2"`
	// Workers is the number of column goroutines; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0"`
	// Iterations is the number of forward-model passes RemoveCTI makes.
	Iterations int `yaml:"iterations" validate:"gte=1"`

	Parallel *Direction `yaml:"parallel,omitempty"`
	Serial   *Direction `yaml:"serial,omitempty"`
}

// Direction configures clocking along one axis.
type Direction struct {
	CCD   CCD    `yaml:"ccd"`
	ROE   ROE    `yaml:"roe"`
	Traps []Trap `yaml:"traps" validate:"dive"`

	Express     int `yaml:"express" validate:"gte=0"`
	Offset      int `yaml:"offset" validate:"gte=0"`
	Overscan    int `yaml:"overscan" validate:"gte=0"`
	WindowStart int `yaml:"window_start" validate:"gte=0"`
	WindowStop  int `yaml:"window_stop" validate:"gte=0"`
	ColumnStart int `yaml:"column_start" validate:"gte=0"`
	ColumnStop  int `yaml:"column_stop" validate:"gte=0"`
}

// CCD mirrors arctic.CCD.
type CCD struct {
	Phases                  []CCDPhase `yaml:"phases" validate:"required,min=1,dive"`
	FractionOfTrapsPerPhase []float64  `yaml:"fraction_of_traps_per_phase,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
}

// CCDPhase mirrors arctic.CCDPhase.
type CCDPhase struct {
	FullWellDepth  float64 `yaml:"full_well_depth" validate:"gt=0"`
	WellNotchDepth float64 `yaml:"well_notch_depth" validate:"gte=0"`
	WellFillPower  float64 `yaml:"well_fill_power" validate:"gt=0"`
}

// ROE mirrors arctic.ROE. Unset booleans take the arctic.NewROE defaults.
type ROE struct {
	Mode                        string    `yaml:"mode,omitempty" validate:"omitempty,roemode"`
	DwellTimes                  []float64 `yaml:"dwell_times" validate:"required,min=1,dive,gt=0"`
	EmptyTrapsBetweenColumns    *bool     `yaml:"empty_traps_between_columns,omitempty"`
	EmptyTrapsForFirstTransfers *bool     `yaml:"empty_traps_for_first_transfers,omitempty"`
	ForceReleaseAwayFromReadout *bool     `yaml:"force_release_away_from_readout,omitempty"`
	UseIntegerExpressMatrix     bool      `yaml:"use_integer_express_matrix,omitempty"`
	NPumps                      int       `yaml:"n_pumps,omitempty" validate:"gte=0"`
}

// Trap mirrors arctic.Trap with the kind spelled out.
type Trap struct {
	Kind                  string  `yaml:"kind" validate:"required,trapkind"`
	Density               float64 `yaml:"density" validate:"gte=0"`
	ReleaseTimescale      float64 `yaml:"release_timescale" validate:"gt=0"`
	CaptureTimescale      float64 `yaml:"capture_timescale,omitempty" validate:"gte=0"`
	ReleaseTimescaleSigma float64 `yaml:"release_timescale_sigma,omitempty" validate:"gte=0"`
}

// Default returns the configuration used when nothing else is given. It
// has no clocking directions, so it does not validate on its own.
func Default() Config {
	return Config{
		Verbosity:  1,
		Workers:    0,
		Iterations: 5,
	}
}

// Load reads configuration with priority: env > file > defaults.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return c, fmt.Errorf("config: read file: %w", err)
	}
	if err := decode(bytes.NewReader(data), &c); err != nil {
		return c, fmt.Errorf("config: %s: %w", path, err)
	}

	if err := applyEnv(&c); err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates YAML on top of the defaults. The
// environment is not consulted.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := decode(bytes.NewReader(data), &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func decode(r io.Reader, c *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv(EnvVerbosity); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvVerbosity, v, err)
		}
		c.Verbosity = i
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvWorkers, v, err)
		}
		c.Workers = i
	}
	return nil
}

// Save writes c as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// Options returns the per-call arctic options c asks for.
func (c Config) Options() []arctic.Option {
	return []arctic.Option{
		arctic.WithWorkers(c.Workers),
		arctic.WithVerbosity(c.Verbosity),
	}
}

// ClockConfigs converts both directions; either result may be nil.
func (c Config) ClockConfigs() (parallel, serial *arctic.ClockConfig, err error) {
	if c.Parallel != nil {
		if parallel, err = c.Parallel.ClockConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: parallel: %w", err)
		}
	}
	if c.Serial != nil {
		if serial, err = c.Serial.ClockConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: serial: %w", err)
		}
	}
	return parallel, serial, nil
}

// ClockConfig converts d into the arctic form. Continuum trap tables are
// built here, so an unusable species is reported at load time.
func (d *Direction) ClockConfig() (*arctic.ClockConfig, error) {
	roe, err := d.ROE.arctic()
	if err != nil {
		return nil, err
	}
	cc := &arctic.ClockConfig{
		CCD:         d.CCD.arctic(),
		ROE:         roe,
		Traps:       make([]arctic.Trap, len(d.Traps)),
		Express:     d.Express,
		Offset:      d.Offset,
		Overscan:    d.Overscan,
		WindowStart: d.WindowStart,
		WindowStop:  d.WindowStop,
		ColumnStart: d.ColumnStart,
		ColumnStop:  d.ColumnStop,
	}
	for i, t := range d.Traps {
		if cc.Traps[i], err = t.arctic(); err != nil {
			return nil, fmt.Errorf("trap %d: %w", i, err)
		}
	}
	return cc, nil
}

func (c CCD) arctic() arctic.CCD {
	out := arctic.CCD{
		Phases:                  make([]arctic.CCDPhase, len(c.Phases)),
		FractionOfTrapsPerPhase: append([]float64(nil), c.FractionOfTrapsPerPhase...),
	}
	for i, p := range c.Phases {
		out.Phases[i] = arctic.CCDPhase{
			FullWellDepth:  p.FullWellDepth,
			WellNotchDepth: p.WellNotchDepth,
			WellFillPower:  p.WellFillPower,
		}
	}
	return out
}

func (r ROE) arctic() (arctic.ROE, error) {
	mode := arctic.ModeStandard
	if r.Mode != "" {
		var err error
		if mode, err = arctic.ParseROEMode(r.Mode); err != nil {
			return arctic.ROE{}, err
		}
	}

	dwells := append([]float64(nil), r.DwellTimes...)
	var out arctic.ROE
	switch mode {
	case arctic.ModeTrapPumping:
		out = arctic.NewTrapPumpingROE(r.NPumps, dwells...)
	case arctic.ModeChargeInjection:
		out = arctic.NewChargeInjectionROE(dwells...)
	default:
		out = arctic.NewROE(dwells...)
	}
	if r.EmptyTrapsBetweenColumns != nil {
		out.EmptyTrapsBetweenColumns = *r.EmptyTrapsBetweenColumns
	}
	if r.ForceReleaseAwayFromReadout != nil {
		out.ForceReleaseAwayFromReadout = *r.ForceReleaseAwayFromReadout
	}
	if r.EmptyTrapsForFirstTransfers != nil {
		out.EmptyTrapsForFirstTransfers = *r.EmptyTrapsForFirstTransfers
	}
	out.UseIntegerExpressMatrix = r.UseIntegerExpressMatrix
	return out, nil
}

func (t Trap) arctic() (arctic.Trap, error) {
	kind, err := arctic.ParseTrapKind(t.Kind)
	if err != nil {
		return arctic.Trap{}, err
	}
	return arctic.Trap{
		Kind:                  kind,
		Density:               t.Density,
		ReleaseTimescale:      t.ReleaseTimescale,
		CaptureTimescale:      t.CaptureTimescale,
		ReleaseTimescaleSigma: t.ReleaseTimescaleSigma,
	}.Prepare()
}
