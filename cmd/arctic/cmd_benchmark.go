package main

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctitools/arctic"
	"github.com/ctitools/arctic/internal/config"
)

// transferCounter is an arctic.Recorder that totals transfers.
type transferCounter struct {
	transfers atomic.Int64
}

func (t *transferCounter) RecordClocking(s arctic.ClockingStats) {
	t.transfers.Add(s.Transfers)
}

// benchmarkImage is a faint sky with scattered bright sources, seeded so
// repeated runs clock identical charge.
func benchmarkImage(rows, cols int, seed uint64) (*arctic.Image, error) {
	img, err := arctic.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := img.Data()
	for i := range data {
		data[i] = 10 + rng.NormFloat64()
		if rng.IntN(50) == 0 {
			data[i] += 100 + rng.Float64()*5000
		}
	}
	return img, nil
}

func newBenchmarkCmd(a *app) *cobra.Command {
	var (
		rows, cols int
		express    int
		repeat     int
		seed       uint64
	)
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Time parallel CTI on a synthetic image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat %d: need at least one run", repeat)
			}
			c := config.Demo()
			c.Serial = nil
			c.Parallel.CCD.Phases[0].FullWellDepth = 1e4
			c.Parallel.Express = express
			if err := a.resolve(cmd, &c); err != nil {
				return err
			}
			parallel, _, err := c.ClockConfigs()
			if err != nil {
				return err
			}
			img, err := benchmarkImage(rows, cols, seed)
			if err != nil {
				return err
			}

			counter := &transferCounter{}
			var rec arctic.Recorder = counter
			if a.metrics != nil {
				rec = multiRecorder{counter, a.metrics}
			}
			opts := append(c.Options(), arctic.WithRecorder(rec))

			p := printer()
			w := cmd.OutOrStdout()
			var best time.Duration
			for i := range repeat {
				start := time.Now()
				if _, err := arctic.AddCTI(img, parallel, nil, opts...); err != nil {
					return err
				}
				d := time.Since(start)
				if i == 0 || d < best {
					best = d
				}
				p.Fprintf(w, "run %d: %v\n", i+1, d.Round(time.Microsecond))
			}
			perRun := counter.transfers.Load() / int64(repeat)
			p.Fprintf(w, "%d x %d pixels, express %d: best %v, %d transfers per run, %.0f transfers/s\n",
				rows, cols, express, best.Round(time.Microsecond), perRun,
				float64(perRun)/best.Seconds())
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 2000, "image rows")
	cmd.Flags().IntVar(&cols, "cols", 10, "image columns")
	cmd.Flags().IntVar(&express, "express", 5, "express passes (0 for every transfer)")
	cmd.Flags().IntVar(&repeat, "repeat", 3, "timed runs")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed for the synthetic image")
	return cmd
}

// multiRecorder fans statistics out to several recorders.
type multiRecorder []arctic.Recorder

func (m multiRecorder) RecordClocking(s arctic.ClockingStats) {
	for _, r := range m {
		r.RecordClocking(s)
	}
}
