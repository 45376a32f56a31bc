package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ctitools/arctic"
)

// validate is shared by every Config. Initialized in init() with the
// arctic enum validators.
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("trapkind", validateTrapKind)
	_ = validate.RegisterValidation("roemode", validateROEMode)
}

func validateTrapKind(fl validator.FieldLevel) bool {
	_, err := arctic.ParseTrapKind(fl.Field().String())
	return err == nil
}

func validateROEMode(fl validator.FieldLevel) bool {
	_, err := arctic.ParseROEMode(fl.Field().String())
	return err == nil
}

// Validate checks field ranges, then that at least one direction is set
// and that each converts into a usable arctic.ClockConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Parallel == nil && c.Serial == nil {
		return arctic.ErrNoClockConfig
	}
	parallel, serial, err := c.ClockConfigs()
	if err != nil {
		return err
	}
	for _, cc := range []*arctic.ClockConfig{parallel, serial} {
		if cc == nil {
			continue
		}
		if err := cc.CCD.Validate(); err != nil {
			return err
		}
		if err := cc.ROE.Validate(); err != nil {
			return err
		}
		if cc.CCD.NPhases() != cc.ROE.NPhases() {
			return fmt.Errorf("%d CCD phases, %d ROE phases: %w",
				cc.CCD.NPhases(), cc.ROE.NPhases(), arctic.ErrPhaseMismatch)
		}
	}
	return nil
}
