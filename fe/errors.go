package fe

import "errors"

// Failure kinds raised (as panics wrapping these sentinels) on contract
// violations. Every one of them indicates a programming error in the
// calling assembly code, never a runtime condition to recover from; they
// are distinguishable via errors.Is so tests can assert on the exact
// failure mode.
var (
	// ErrNotReinited: a per-cell accessor was called before the first
	// Reinit.
	ErrNotReinited = errors.New("fe: evaluation cache has not been reinitialized on a cell")

	// ErrFlagNotSet: the accessor needs an update flag that was not
	// requested at construction.
	ErrFlagNotSet = errors.New("fe: update flag was not set at construction")

	// ErrShapeNotPrimitive: a non-primitive shape function was queried
	// through a primitive-only accessor.
	ErrShapeNotPrimitive = errors.New("fe: shape function is not primitive, use the component accessor")

	// ErrFEMismatch: the cell's DoF layout or element disagrees with the
	// one the cache was built for.
	ErrFEMismatch = errors.New("fe: finite element mismatch between cache and cell")

	// ErrIndexRange: a shape-function, quadrature-point or component index
	// is out of range.
	ErrIndexRange = errors.New("fe: index out of range")

	// ErrCurlUndefined: curl was requested in one space dimension.
	ErrCurlUndefined = errors.New("fe: curl is not defined in 1D")

	// ErrNoDoFs: an operation needing DoF indices was attempted with a
	// geometry-only cell handle.
	ErrNoDoFs = errors.New("fe: operation requires DoF indices, none were provided")
)
