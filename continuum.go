package arctic

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ctitools/arctic/internal/cache"
)

// Continuum table geometry. Times are log-spaced so that both the fast
// initial decay and the long tail are resolved.
const (
	continuumTableSize   = 1000
	continuumQuadPoints  = 256
	continuumSigmaRange  = 8.0  // integrate ln(tau) over mu +/- 8 sigma
	continuumTimeFloor   = 1e-4 // smallest tabulated time, in units of the fastest timescale
	continuumTimeCeiling = 1e2  // largest tabulated time, in units of the slowest timescale
)

// continuumTable maps elapsed time to the surviving fill fraction of traps
// whose release timescales are log-normally distributed, and back.
//
// fills[i] = integral over u of N(u; ln tau, sigma) * exp(-times[i] * e^-u) du
//
// fills is non-increasing in i.
type continuumTable struct {
	times    []float64
	logTimes []float64
	fills    []float64
}

type continuumKey struct {
	median, sigma float64
}

var continuumCache = cache.New[continuumKey, *continuumTable](32)

// continuumTableFor returns a shared table for the distribution, building
// it on first use.
func continuumTableFor(medianTimescale, sigma float64) *continuumTable {
	t, _ := continuumCache.GetOrCreate(continuumKey{medianTimescale, sigma}, func() (*continuumTable, error) {
		return newContinuumTable(medianTimescale, sigma), nil
	})
	return t
}

func newContinuumTable(medianTimescale, sigma float64) *continuumTable {
	mu := math.Log(medianTimescale)
	lo := mu - continuumSigmaRange*sigma
	hi := mu + continuumSigmaRange*sigma
	dist := distuv.Normal{Mu: mu, Sigma: sigma}

	tMin := math.Exp(lo) * continuumTimeFloor
	tMax := math.Exp(hi) * continuumTimeCeiling
	logMin, logMax := math.Log(tMin), math.Log(tMax)
	step := (logMax - logMin) / float64(continuumTableSize-1)

	t := &continuumTable{
		times:    make([]float64, continuumTableSize),
		logTimes: make([]float64, continuumTableSize),
		fills:    make([]float64, continuumTableSize),
	}
	norm := quad.Fixed(dist.Prob, lo, hi, continuumQuadPoints, quad.Legendre{}, 0)
	for i := range continuumTableSize {
		lt := logMin + float64(i)*step
		elapsed := math.Exp(lt)
		integrand := func(u float64) float64 {
			return dist.Prob(u) * math.Exp(-elapsed*math.Exp(-u))
		}
		f := quad.Fixed(integrand, lo, hi, continuumQuadPoints, quad.Legendre{}, 0) / norm
		if i > 0 && f > t.fills[i-1] {
			f = t.fills[i-1]
		}
		t.times[i] = elapsed
		t.logTimes[i] = lt
		t.fills[i] = clamp(f, 0, 1)
	}
	return t
}

// fill returns the surviving fill fraction after elapsed time.
func (t *continuumTable) fill(elapsed float64) float64 {
	n := len(t.times)
	switch {
	case elapsed <= 0:
		return 1
	case math.IsInf(elapsed, 1):
		return 0
	case elapsed >= t.times[n-1]:
		return t.fills[n-1]
	case elapsed < t.times[0]:
		return 1 - (1-t.fills[0])*elapsed/t.times[0]
	}
	i := sort.SearchFloat64s(t.times, elapsed)
	if t.times[i] == elapsed {
		return t.fills[i]
	}
	frac := (math.Log(elapsed) - t.logTimes[i-1]) / (t.logTimes[i] - t.logTimes[i-1])
	return t.fills[i-1] + frac*(t.fills[i]-t.fills[i-1])
}

// time returns the elapsed time at which the fill fraction has decayed to f.
func (t *continuumTable) time(f float64) float64 {
	n := len(t.fills)
	switch {
	case f >= 1:
		return 0
	case f <= 0:
		return math.Inf(1)
	case f >= t.fills[0]:
		return t.times[0] * (1 - f) / (1 - t.fills[0])
	case f <= t.fills[n-1]:
		return t.times[n-1]
	}
	// First index whose fill has dropped to f or below.
	i := sort.Search(n, func(k int) bool { return t.fills[k] <= f })
	f0, f1 := t.fills[i-1], t.fills[i]
	if f0 == f1 {
		return t.times[i]
	}
	frac := (f0 - f) / (f0 - f1)
	return math.Exp(t.logTimes[i-1] + frac*(t.logTimes[i]-t.logTimes[i-1]))
}
