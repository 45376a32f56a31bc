package arctic

import (
	"fmt"
	"testing"
)

// BenchmarkAddCTI_Parallel benchmarks parallel clocking of images of
// various sizes.
func BenchmarkAddCTI_Parallel(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"100x10", 100, 10},
		{"500x10", 500, 10},
		{"2000x10", 2000, 10},
		{"2000x100", 2000, 100},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			img := randomImage(size.rows, size.cols, 1)
			cfg := demoConfig()
			cfg.CCD.Phases[0].FullWellDepth = 1e4
			cfg.Express = 5
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := AddCTI(img, cfg, nil, WithVerbosity(0)); err != nil {
					b.Fatal(err)
				}
			}
			// Report MB/s of pixel data
			b.SetBytes(int64(size.rows * size.cols * 8))
		})
	}
}

// BenchmarkAddCTI_Express compares express settings on one image.
func BenchmarkAddCTI_Express(b *testing.B) {
	img := randomImage(1000, 8, 2)
	for _, express := range []int{1, 2, 5, 20, 0} {
		b.Run(fmt.Sprintf("express_%d", express), func(b *testing.B) {
			cfg := demoConfig()
			cfg.Express = express
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := AddCTI(img, cfg, nil, WithVerbosity(0)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkAddCTI_Workers measures column parallelism.
func BenchmarkAddCTI_Workers(b *testing.B) {
	img := randomImage(1000, 64, 3)
	cfg := demoConfig()
	cfg.Express = 5
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := AddCTI(img, cfg, nil, WithWorkers(workers), WithVerbosity(0)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkTrapManager_ReleaseAndCapture benchmarks one transfer through
// each manager kind with a varying cloud.
func BenchmarkTrapManager_ReleaseAndCapture(b *testing.B) {
	kinds := []struct {
		name string
		trap Trap
	}{
		{"instant", NewInstantCaptureTrap(10, halfLife)},
		{"slow", NewSlowCaptureTrap(10, halfLife, 0.1)},
	}
	for _, k := range kinds {
		b.Run(k.name, func(b *testing.B) {
			const transfers = 1000
			m, err := newTrapManager([]Trap{k.trap}, 1, linearWell, []float64{1}, transfers)
			if err != nil {
				b.Fatal(err)
			}
			clouds := [...]float64{0, 50, 800, 10, 300, 0, 0, 950}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if i%transfers == 0 {
					m.reset()
				}
				m.releaseAndCapture(0, clouds[i%len(clouds)])
			}
		})
	}
}

// BenchmarkNewExpressMatrix benchmarks building uncached express matrices.
func BenchmarkNewExpressMatrix(b *testing.B) {
	roe := NewROE(1)
	for _, rows := range []int{100, 2000} {
		b.Run(fmt.Sprintf("rows_%d", rows), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := NewExpressMatrix(roe, rows, 5, 0, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkContinuumTable benchmarks the uncached table build and lookups.
func BenchmarkContinuumTable(b *testing.B) {
	b.Run("build", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			newContinuumTable(2, 0.5)
		}
	})
	b.Run("lookup", func(b *testing.B) {
		t := newContinuumTable(2, 0.5)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = t.time(t.fill(float64(i%100) * 0.1))
		}
	})
}
