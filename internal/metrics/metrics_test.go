package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ctitools/arctic"
)

func TestRecordClocking(t *testing.T) {
	m := New()

	m.RecordClocking(arctic.ClockingStats{
		Direction:     arctic.Parallel,
		Rows:          10,
		Columns:       4,
		ExpressPasses: 3,
		Transfers:     120,
		Duration:      5 * time.Millisecond,
	})
	m.RecordClocking(arctic.ClockingStats{
		Direction:     arctic.Parallel,
		Columns:       2,
		ExpressPasses: 1,
		Transfers:     30,
	})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"runs", testutil.ToFloat64(m.RunsTotal.WithLabelValues("parallel")), 2},
		{"columns", testutil.ToFloat64(m.ColumnsTotal.WithLabelValues("parallel")), 6},
		{"transfers", testutil.ToFloat64(m.TransfersTotal.WithLabelValues("parallel")), 150},
		{"express passes", testutil.ToFloat64(m.ExpressPasses.WithLabelValues("parallel")), 1},
		{"serial runs", testutil.ToFloat64(m.RunsTotal.WithLabelValues("serial")), 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %g, want %g", c.name, c.got, c.want)
		}
	}

	if n := testutil.CollectAndCount(m.DurationSeconds); n != 1 {
		t.Errorf("duration series = %d, want 1", n)
	}
}

func TestRecordClocking_Concurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordClocking(arctic.ClockingStats{Direction: arctic.Serial, Columns: 1, Transfers: 2})
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(m.TransfersTotal.WithLabelValues("serial")); got != 1600 {
		t.Errorf("transfers = %g, want 1600", got)
	}
}

func TestWithAddCTI(t *testing.T) {
	m := New()
	img := arctic.MustImage([][]float64{{0, 0}, {100, 100}, {0, 0}})
	cfg := &arctic.ClockConfig{
		CCD:   arctic.NewCCD(arctic.CCDPhase{FullWellDepth: 1000, WellFillPower: 1}),
		ROE:   arctic.NewROE(1),
		Traps: []arctic.Trap{arctic.NewInstantCaptureTrap(5, 1)},
	}
	if _, err := arctic.AddCTI(img, cfg, cfg, arctic.WithRecorder(m), arctic.WithVerbosity(0)); err != nil {
		t.Fatalf("AddCTI: %v", err)
	}
	for _, dir := range []string{"parallel", "serial"} {
		if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(dir)); got != 1 {
			t.Errorf("%s runs = %g, want 1", dir, got)
		}
		if got := testutil.ToFloat64(m.TransfersTotal.WithLabelValues(dir)); got <= 0 {
			t.Errorf("%s transfers = %g, want > 0", dir, got)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordClocking(arctic.ClockingStats{Direction: arctic.Serial, Columns: 3, Transfers: 9})

	path := filepath.Join(t.TempDir(), "arctic.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`arctic_clocking_columns_total{direction="serial"} 3`,
		`arctic_clocking_transfers_total{direction="serial"} 9`,
		"# TYPE arctic_clocking_duration_seconds histogram",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := New()
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "arctic.prom")); err == nil {
		t.Error("WriteTextfile into a missing directory succeeded")
	}
}
