package rules

import "errors"

// ErrInvalidProfile means a requested profile name does not exist.
// Fatal to the requesting run; classification never falls back to a
// different profile silently.
var ErrInvalidProfile = errors.New("unknown timing rule profile")
