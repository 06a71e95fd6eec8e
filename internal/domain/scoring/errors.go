package scoring

import "errors"

// Sentinel errors returned by NewEngine.
var (
	ErrInvalidWeights    = errors.New("scoring weights must be non-negative and sum to 1")
	ErrInvalidThresholds = errors.New("scoring thresholds must satisfy 0 < step_up <= reject <= 100")
	ErrInvalidRule       = errors.New("invalid scoring rule")
)
