package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := New(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("New(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestPool_Run(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}

	pool.Run(tasks)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestPool_RunEveryIndex(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	var mu sync.Mutex
	seen := make(map[int]bool)
	tasks := make([]func(), 50)
	for i := range tasks {
		tasks[i] = func() {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		}
	}

	pool.Run(tasks)

	for i := range tasks {
		if !seen[i] {
			t.Errorf("task %d did not run", i)
		}
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	// Should not panic or block
	pool.Run(nil)
	pool.Run([]func(){})
}

func TestPool_RunUneven(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 8)
	for i := range tasks {
		tasks[i] = func() {
			if i == 0 {
				time.Sleep(20 * time.Millisecond)
			}
			counter.Add(1)
		}
	}

	pool.Run(tasks)

	if counter.Load() != 8 {
		t.Errorf("counter = %d, want 8", counter.Load())
	}
}

func TestPool_RunAfterClose(t *testing.T) {
	pool := New(2)
	pool.Close()

	ran := false
	pool.Run([]func(){func() { ran = true }})
	if ran {
		t.Error("Run on a closed pool executed a task")
	}
}

func TestPool_CloseTwice(t *testing.T) {
	pool := New(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
}

// =============================================================================
// ForEachRange Tests
// =============================================================================

func TestPool_ForEachRange(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	hits := make([]int32, 37)
	pool.ForEachRange(len(hits), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		if h != 1 {
			t.Errorf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  [][2]int
	}{
		{"even", 6, 3, [][2]int{{0, 2}, {2, 4}, {4, 6}}},
		{"uneven", 7, 3, [][2]int{{0, 3}, {3, 5}, {5, 7}}},
		{"more parts than items", 2, 8, [][2]int{{0, 1}, {1, 2}}},
		{"zero parts", 3, 0, [][2]int{{0, 3}}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.n, tt.parts)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split(%d, %d)[%d] = %v, want %v", tt.n, tt.parts, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPool_ForEachRange(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	data := make([]float64, 1<<16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ForEachRange(len(data), func(lo, hi int) {
			for k := lo; k < hi; k++ {
				data[k] += 1
			}
		})
	}
}
