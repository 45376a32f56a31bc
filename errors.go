package arctic

import "errors"

// Configuration errors. All of them are reported before any charge is
// clocked, so a failed call never leaves a partially trailed image behind.
var (
	// ErrNoClockConfig is returned when neither a parallel nor a serial
	// clocking configuration is supplied.
	ErrNoClockConfig = errors.New("arctic: no parallel or serial clocking configuration")

	// ErrEmptyImage is returned for images with no rows or no columns.
	ErrEmptyImage = errors.New("arctic: empty image")

	// ErrInvalidTrap is returned for trap species with unusable parameters.
	ErrInvalidTrap = errors.New("arctic: invalid trap species")

	// ErrIncompatibleTraps is returned when species that cannot share a
	// watermark set are handed to one trap manager.
	ErrIncompatibleTraps = errors.New("arctic: trap species cannot share watermarks")

	// ErrInvalidCCD is returned for CCD phases with unusable well parameters.
	ErrInvalidCCD = errors.New("arctic: invalid CCD")

	// ErrInvalidROE is returned for readout electronics with unusable settings.
	ErrInvalidROE = errors.New("arctic: invalid ROE")

	// ErrPhaseMismatch is returned when the CCD and ROE disagree on the
	// number of phases per pixel.
	ErrPhaseMismatch = errors.New("arctic: CCD and ROE phase counts differ")

	// ErrInvalidIterations is returned when RemoveCTI is asked for fewer
	// than one iteration.
	ErrInvalidIterations = errors.New("arctic: remove_cti needs at least one iteration")

	// ErrInvalidWindow is returned for window, offset or express settings
	// outside the image.
	ErrInvalidWindow = errors.New("arctic: invalid clocking window")
)
