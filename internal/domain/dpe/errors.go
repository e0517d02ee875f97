package dpe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoStrategies means the descriptor carries nothing to search on
	ErrNoStrategies = errors.New("dpe: descriptor yields no search strategy")

	// ErrAllStrategiesFailed is matched by every *AcquisitionError
	ErrAllStrategiesFailed = errors.New("dpe: all acquisition strategies failed")
)

// StrategyError ties an upstream failure to the strategy that hit it
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// AcquisitionError reports that no strategy produced a usable response
type AcquisitionError struct {
	Failures []*StrategyError
}

func (e *AcquisitionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%v: %s", ErrAllStrategiesFailed, strings.Join(parts, "; "))
}

func (e *AcquisitionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrAllStrategiesFailed)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
