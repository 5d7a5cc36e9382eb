package masterdata

import "errors"

// ErrMappingCardinalityMismatch means sensor and zone counts differ and
// no explicit mapping was supplied. Recoverable by supplying one.
var ErrMappingCardinalityMismatch = errors.New("sensor and zone cardinality mismatch")
