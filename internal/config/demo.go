package config

import "math"

// Demo returns the configuration of the built-in demonstration: one
// instant-capture species whose traps half empty every dwell, on a linear
// well, clocked exactly in both directions.
func Demo() Config {
	c := Default()
	dir := func() *Direction {
		return &Direction{
			CCD: CCD{Phases: []CCDPhase{{FullWellDepth: 1000, WellFillPower: 1}}},
			ROE: ROE{DwellTimes: []float64{1}},
			Traps: []Trap{{
				Kind:             "instant_capture",
				Density:          10,
				ReleaseTimescale: -1 / math.Log(0.5),
			}},
		}
	}
	c.Parallel = dir()
	c.Serial = dir()
	return c
}
