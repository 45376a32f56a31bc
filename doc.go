// Package arctic models charge transfer inefficiency (CTI) in CCD detectors.
//
// # Overview
//
// During readout, charge is clocked pixel by pixel toward the output
// amplifier. Defects in the silicon lattice trap some electrons and release
// them later, smearing bright sources into trails. arctic simulates that
// process (AddCTI) and inverts it iteratively (RemoveCTI).
//
// # Quick Start
//
//	import "github.com/ctitools/arctic"
//
//	trap := arctic.NewInstantCaptureTrap(10, -1/math.Log(0.5))
//	cfg := &arctic.ClockConfig{
//		CCD:   arctic.NewCCD(arctic.CCDPhase{FullWellDepth: 1000, WellFillPower: 1}),
//		ROE:   arctic.NewROE(1),
//		Traps: []arctic.Trap{trap},
//	}
//
//	trailed, err := arctic.AddCTI(img, cfg, nil)
//	corrected, err := arctic.RemoveCTI(trailed, 5, cfg, nil)
//
// # Model
//
// Each pixel holds trap species (Trap) in one or more phases (CCDPhase).
// A cloud of n electrons fills a fraction of the pixel volume given by the
// phase's well model; traps within that volume may capture. Trap occupancy
// is tracked as a stack of watermarks, one manager per compatible group of
// species per phase.
//
// The readout electronics (ROE) define the clock sequence: which phase
// holds charge during each step and where electrons released by the other
// phases go. Standard, charge-injection and trap-pumping modes are
// supported.
//
// # Express
//
// Clocking every transfer of every pixel costs O(rows^2) per column. The
// express option groups transfers into a few passes, each step standing
// for several transfers (see ExpressMatrix). Express 0 is exact.
//
// # Coordinate System
//
// Row 0 is nearest the readout register. Parallel clocking moves charge
// down columns toward row 0; serial clocking moves it along rows toward
// column 0.
//
// # Concurrency
//
// When traps are emptied between columns, columns are independent and are
// clocked on a worker pool (see WithWorkers). Results do not depend on the
// number of workers.
package arctic

// Version information
const (
	// Version is the current version of the library
	Version = "0.4.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 4

	// VersionPatch is the patch version
	VersionPatch = 0
)
