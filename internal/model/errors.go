package model

import "errors"

// ErrInvalidArgument is returned when a value is rejected at a constructor or
// setter boundary (negative size metric, NaN color metric, out of range settings).
var ErrInvalidArgument = errors.New("invalid argument")
