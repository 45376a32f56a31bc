// Package config loads arctic run configurations.
//
// A configuration file is YAML with an optional block per clocking
// direction:
//
//	verbosity: 1
//	workers: 0
//	iterations: 5
//	parallel:
//	  express: 5
//	  ccd:
//	    phases:
//	      - {full_well_depth: 1000, well_notch_depth: 0, well_fill_power: 1}
//	  roe:
//	    dwell_times: [1]
//	  traps:
//	    - {kind: instant_capture, density: 10, release_timescale: 1.44}
//
// Settings are resolved in order: built-in defaults, then the file, then
// the environment (ARCTIC_VERBOSITY, ARCTIC_WORKERS). The result is
// validated before it is returned.
package config
