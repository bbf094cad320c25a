package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOutsideDomain is returned for points outside the modelled area.
	ErrOutsideDomain = errors.New("point outside of domain")
	// ErrNoClimateFile means no climate file exists near the requested point.
	ErrNoClimateFile = errors.New("no climate file near point")
	// ErrCatalogInconsistent means the catalog names a file that is not on disk.
	ErrCatalogInconsistent = errors.New("climate catalog references a missing file")
	// ErrNoData is returned when a query matched nothing.
	ErrNoData = errors.New("no data found")
	// ErrInvalidArgument wraps parameter problems found past request validation.
	ErrInvalidArgument = errors.New("invalid argument")
)

// OutsideDomainError carries the bounds a point was checked against.
type OutsideDomainError struct {
	Point  GeoPoint
	Bounds Bounds
}

func (e *OutsideDomainError) Error() string {
	return fmt.Sprintf("Requested point outside of bounds %g,%g %g,%g!",
		e.Bounds.MinLon, e.Bounds.MinLat, e.Bounds.MaxLon, e.Bounds.MaxLat)
}

func (e *OutsideDomainError) Unwrap() error { return ErrOutsideDomain }
