package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"

	"github.com/ctitools/arctic"
)

const sampleYAML = `
verbosity: 2
workers: 3
iterations: 4
parallel:
  express: 5
  offset: 10
  window_start: 2
  ccd:
    phases:
      - {full_well_depth: 1000, well_notch_depth: 0, well_fill_power: 0.5}
      - {full_well_depth: 1000, well_notch_depth: 10, well_fill_power: 0.5}
    fraction_of_traps_per_phase: [0.5, 0.5]
  roe:
    dwell_times: [0.5, 0.5]
    empty_traps_for_first_transfers: true
    force_release_away_from_readout: false
  traps:
    - {kind: instant_capture, density: 10, release_timescale: 1.44}
    - {kind: slow_capture, density: 2, release_timescale: 5, capture_timescale: 0.1}
serial:
  ccd:
    phases:
      - {full_well_depth: 8000, well_fill_power: 1}
  roe:
    mode: charge_injection
    dwell_times: [1]
  traps:
    - kind: instant_capture_continuum
      density: 1
      release_timescale: 2
      release_timescale_sigma: 0.5
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arctic.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Verbosity != 2 || c.Workers != 3 || c.Iterations != 4 {
		t.Errorf("top level = (%d, %d, %d), want (2, 3, 4)", c.Verbosity, c.Workers, c.Iterations)
	}

	parallel, serial, err := c.ClockConfigs()
	if err != nil {
		t.Fatalf("ClockConfigs: %v", err)
	}

	if parallel.Express != 5 || parallel.Offset != 10 || parallel.WindowStart != 2 {
		t.Errorf("parallel express/offset/window = %d/%d/%d", parallel.Express, parallel.Offset, parallel.WindowStart)
	}
	wantCCD := arctic.CCD{
		Phases: []arctic.CCDPhase{
			{FullWellDepth: 1000, WellNotchDepth: 0, WellFillPower: 0.5},
			{FullWellDepth: 1000, WellNotchDepth: 10, WellFillPower: 0.5},
		},
		FractionOfTrapsPerPhase: []float64{0.5, 0.5},
	}
	if diff := cmp.Diff(wantCCD, parallel.CCD); diff != "" {
		t.Errorf("parallel CCD mismatch (-want +got):\n%s", diff)
	}
	roe := parallel.ROE
	if roe.Mode != arctic.ModeStandard || !roe.EmptyTrapsBetweenColumns ||
		!roe.EmptyTrapsForFirstTransfers || roe.ForceReleaseAwayFromReadout {
		t.Errorf("parallel ROE = %+v", roe)
	}
	if len(parallel.Traps) != 2 || parallel.Traps[1].Kind != arctic.SlowCapture ||
		parallel.Traps[1].CaptureTimescale != 0.1 {
		t.Errorf("parallel traps = %+v", parallel.Traps)
	}

	if serial.ROE.Mode != arctic.ModeChargeInjection || !serial.ROE.ForceReleaseAwayFromReadout ||
		!serial.ROE.EmptyTrapsForFirstTransfers {
		t.Errorf("serial ROE = %+v", serial.ROE)
	}
	if serial.Traps[0].Kind != arctic.InstantCaptureContinuum {
		t.Errorf("serial trap kind = %v", serial.Traps[0].Kind)
	}
	// Prepared continuum traps follow the table, not a pure exponential.
	if got := serial.Traps[0].FillFractionFromTime(2); got <= 0 || got >= 1 {
		t.Errorf("continuum fill at median = %g", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvVerbosity, "0")
	t.Setenv(EnvWorkers, "7")

	c, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Verbosity != 0 || c.Workers != 7 {
		t.Errorf("verbosity, workers = %d, %d, want 0, 7", c.Verbosity, c.Workers)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv(EnvWorkers, "many")
	_, err := Load(writeFile(t, sampleYAML))
	if err == nil || !strings.Contains(err.Error(), EnvWorkers) {
		t.Errorf("err = %v, want it to name %s", err, EnvWorkers)
	}
}

func TestLoad_EnvValidated(t *testing.T) {
	t.Setenv(EnvVerbosity, "9")
	_, err := Load(writeFile(t, sampleYAML))
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want validator.ValidationErrors", err)
	}
	if verrs[0].Field() != "Verbosity" {
		t.Errorf("field = %s, want Verbosity", verrs[0].Field())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestParse_Errors(t *testing.T) {
	base := `
parallel:
  ccd: {phases: [{full_well_depth: 1000, well_fill_power: 1}]}
  roe: {dwell_times: [1]}
  traps: [{kind: instant_capture, density: 1, release_timescale: 1}]
`
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		wantTag string
	}{
		{name: "no directions", yaml: "verbosity: 1\n", wantErr: arctic.ErrNoClockConfig},
		{name: "empty document", yaml: "", wantErr: arctic.ErrNoClockConfig},
		{name: "unknown kind", yaml: strings.Replace(base, "instant_capture", "sticky", 1), wantTag: "trapkind"},
		{name: "unknown mode", yaml: strings.Replace(base, "{dwell_times: [1]}", "{mode: sideways, dwell_times: [1]}", 1), wantTag: "roemode"},
		{name: "no dwells", yaml: strings.Replace(base, "[1]}", "[]}", 1), wantTag: "required min"},
		{name: "negative dwell", yaml: strings.Replace(base, "[1]}", "[-1]}", 1), wantTag: "gt"},
		{name: "zero iterations", yaml: "iterations: 0\n" + base, wantTag: "gte"},
		{name: "no phases", yaml: strings.Replace(base, "[{full_well_depth: 1000, well_fill_power: 1}]", "[]", 1), wantTag: "required min"},
		{name: "slow without capture", yaml: strings.Replace(base, "kind: instant_capture,", "kind: slow_capture,", 1), wantErr: arctic.ErrInvalidTrap},
		{name: "phase mismatch", yaml: strings.Replace(base, "[1]}", "[1, 1]}", 1), wantErr: arctic.ErrPhaseMismatch},
		{name: "notch above well", yaml: strings.Replace(base, "well_fill_power: 1}", "well_notch_depth: 2000, well_fill_power: 1}", 1), wantErr: arctic.ErrInvalidCCD},
		{name: "pumping without pumps", yaml: strings.Replace(base, "{dwell_times: [1]}", "{mode: trap_pumping, dwell_times: [1, 1]}", 1), wantErr: arctic.ErrInvalidROE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantTag != "" {
				var verrs validator.ValidationErrors
				if !errors.As(err, &verrs) {
					t.Fatalf("err = %v, want validator.ValidationErrors", err)
				}
				if !strings.Contains(tt.wantTag, verrs[0].Tag()) {
					t.Errorf("tag = %s, want %s", verrs[0].Tag(), tt.wantTag)
				}
			}
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("verbositty: 1\n"))
	if err == nil || !strings.Contains(err.Error(), "verbositty") {
		t.Errorf("err = %v, want unknown field reported", err)
	}
}

func TestParse_TrapPumping(t *testing.T) {
	c, err := Parse([]byte(`
parallel:
  ccd: {phases: [{full_well_depth: 1000, well_fill_power: 1}]}
  roe: {mode: trap_pumping, n_pumps: 20, dwell_times: [0.5, 0.5]}
  traps: [{kind: instant_capture, density: 1, release_timescale: 1}]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	parallel, _, err := c.ClockConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if parallel.ROE.NPumps != 20 || parallel.ROE.NPhases() != 1 || parallel.ROE.ForceReleaseAwayFromReadout {
		t.Errorf("ROE = %+v", parallel.ROE)
	}
}

func TestParse_FirstTransfersOff(t *testing.T) {
	c, err := Parse([]byte(`
parallel:
  ccd: {phases: [{full_well_depth: 1000, well_fill_power: 1}]}
  roe: {dwell_times: [1], empty_traps_for_first_transfers: false}
  traps: [{kind: instant_capture, density: 1, release_timescale: 1}]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	parallel, _, err := c.ClockConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if parallel.ROE.EmptyTrapsForFirstTransfers {
		t.Errorf("ROE = %+v, want first transfers off", parallel.ROE)
	}
	if !parallel.ROE.EmptyTrapsBetweenColumns {
		t.Errorf("ROE = %+v, want the other defaults kept", parallel.ROE)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	want := Demo()
	want.Workers = 2
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := want.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDemo(t *testing.T) {
	c := Demo()
	if err := c.Validate(); err != nil {
		t.Fatalf("Demo().Validate: %v", err)
	}
	img := arctic.MustImage([][]float64{{0, 0}, {200, 0}, {0, 0}})
	parallel, serial, err := c.ClockConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if !parallel.ROE.EmptyTrapsForFirstTransfers || !serial.ROE.EmptyTrapsForFirstTransfers {
		t.Errorf("demo ROEs = %+v, %+v; want first transfers on", parallel.ROE, serial.ROE)
	}
	out, err := arctic.AddCTI(img, parallel, serial, c.Options()...)
	if err != nil {
		t.Fatalf("AddCTI: %v", err)
	}
	if got := out.At(1, 0); got >= 200 || got < 190 {
		t.Errorf("out[1][0] = %g, want a little below 200", got)
	}
}

func TestOptions(t *testing.T) {
	if got := len(Default().Options()); got != 2 {
		t.Errorf("len(Options) = %d, want 2", got)
	}
}
