package domain

import "errors"

// ErrNoData is returned when every source for a required input failed.
var ErrNoData = errors.New("no data available")
