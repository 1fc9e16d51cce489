// Package modelerr defines the error taxonomy shared by every discretization
// component. Errors are always returned synchronously and abort the whole run;
// callers classify them with errors.Is against the sentinels below.
package modelerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a malformed model or discretization setup: empty
	// model, missing initial condition, unresolved variable or boundary side,
	// invalid origin condition, mesh/method mismatch, re-discretization.
	ErrConfiguration = errors.New("configuration error")

	// ErrShape marks a lowered expression whose shape disagrees with its
	// declared domain width or with the shape of its initial condition.
	ErrShape = errors.New("shape error")

	// ErrDomain marks a spatial construct applied to an unregistered or
	// unsupported domain.
	ErrDomain = errors.New("domain error")
)

// Configurationf returns an error wrapping ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Shapef returns an error wrapping ErrShape.
func Shapef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

// Domainf returns an error wrapping ErrDomain.
func Domainf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDomain, fmt.Sprintf(format, args...))
}
