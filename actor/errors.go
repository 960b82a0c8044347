package actor

import "errors"

// Construction errors
var (
	ErrNilCollider        = errors.New("collider is nil")
	ErrNonPositiveMass    = errors.New("mass must be positive and finite")
	ErrDegenerateExtents  = errors.New("half extents must be positive and finite")
	ErrUnsupportedShape   = errors.New("collider shape is not supported")
	ErrNonFiniteTransform = errors.New("transform must be finite")
	ErrNonFiniteParameter = errors.New("body parameter must be finite")
)
