package arctic

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ctitools/arctic/internal/parallel"
)

// AddCTI returns a copy of img with charge transfer inefficiency trails
// added: first by clocking along the columns with parallel, then along the
// rows with serial. Either config may be nil, but not both.
//
// The input image is never modified. All configuration is validated before
// any charge is moved.
func AddCTI(img *Image, parallel, serial *ClockConfig, opts ...Option) (*Image, error) {
	s, err := newSession(img, parallel, serial, opts)
	if err != nil {
		return nil, err
	}
	defer s.close()

	return s.addCTI(img)
}

// RemoveCTI estimates the image that, read out with AddCTI's model, would
// give img. Each of nIterations rounds adds CTI to the current estimate and
// corrects the estimate by the difference from img.
func RemoveCTI(img *Image, nIterations int, parallel, serial *ClockConfig, opts ...Option) (*Image, error) {
	if nIterations < 1 {
		return nil, fmt.Errorf("arctic: %d iterations: %w", nIterations, ErrInvalidIterations)
	}
	s, err := newSession(img, parallel, serial, opts)
	if err != nil {
		return nil, err
	}
	defer s.close()

	estimate := img.Clone()
	for i := range nIterations {
		model, err := s.addCTI(estimate)
		if err != nil {
			return nil, err
		}
		residual := floats.Distance(img.data, model.data, math.Inf(1))
		floats.Add(estimate.data, img.data)
		floats.Sub(estimate.data, model.data)
		s.log.Debug("arctic: remove_cti iteration",
			"iteration", i+1,
			"of", nIterations,
			"max_residual", residual,
		)
	}
	s.log.Info("arctic: removed CTI", "iterations", nIterations)
	return estimate, nil
}

// session holds the validated clockers and shared resources of one call.
type session struct {
	parallel *clocker
	serial   *clocker
	pool     *parallel.Pool
	opts     options
	log      *slog.Logger
}

func newSession(img *Image, par, ser *ClockConfig, opts []Option) (*session, error) {
	if img == nil || img.rows == 0 || img.cols == 0 {
		return nil, ErrEmptyImage
	}
	if par == nil && ser == nil {
		return nil, ErrNoClockConfig
	}

	s := &session{opts: applyOptions(opts)}
	s.log = verbosityLogger(s.opts.logger, s.opts.verbosity)

	var err error
	if par != nil {
		if s.parallel, err = par.prepare(img.rows, img.cols); err != nil {
			return nil, fmt.Errorf("arctic: parallel: %w", err)
		}
	}
	if ser != nil {
		if s.serial, err = ser.prepare(img.cols, img.rows); err != nil {
			return nil, fmt.Errorf("arctic: serial: %w", err)
		}
	}

	if s.opts.workers != 1 {
		s.pool = parallel.New(s.opts.workers)
	}
	return s, nil
}

func (s *session) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// addCTI clocks a copy of img in both configured directions.
func (s *session) addCTI(img *Image) (*Image, error) {
	out := img.Clone()
	if s.parallel != nil {
		if err := clockImage(out, s.parallel, Parallel, s.pool, &s.opts, s.log); err != nil {
			return nil, err
		}
	}
	if s.serial != nil {
		t := out.Transpose()
		if err := clockImage(t, s.serial, Serial, s.pool, &s.opts, s.log); err != nil {
			return nil, err
		}
		out = t.Transpose()
	}
	return out, nil
}
