package config

import "errors"

var (
	errNotPowerOfTwo   = errors.New("channel count must be a power of two")
	errDataFileBounds  = errors.New("data file min size must be positive and less than max size")
	errUseRatioRange   = errors.New("minimum use ratio must be in [0, 1]")
	errBudgetBounds    = errors.New("housekeeping time budget must be positive and at most the maximum budget")
	errEmptyStorageDir = errors.New("storage dir must not be empty")
	errUnknownStrategy = errors.New("unrecognized distribution strategy")
)
