package ai

import "github.com/joonhokim/stockpulse/internal/ai/aierrors"

// Sentinel errors re-exported from aierrors; same values, so errors.Is
// works regardless of which package callers reference.
var (
	ErrProviderUnavailable = aierrors.ErrProviderUnavailable
	ErrInferenceTimeout    = aierrors.ErrInferenceTimeout
	ErrInvalidResponse     = aierrors.ErrInvalidResponse
)
