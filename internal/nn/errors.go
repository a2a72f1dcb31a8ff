package nn

import "github.com/pkg/errors"

// Errors shared by the function registries and the network engine. Callers
// match them with errors.Is; every returned error wraps exactly one of these.
var (
	ErrInvalidConfiguration  = errors.New("invalid configuration")
	ErrDimensionMismatch     = errors.New("dimension mismatch")
	ErrUnsupportedActivation = errors.New("unsupported activation")
	ErrUnsupportedCost       = errors.New("unsupported cost")
	ErrEmptyLayer            = errors.New("empty layer")
	ErrEmptyTrainingSet      = errors.New("empty training set")
)
