// Package aierrors holds the AI provider sentinel errors in a leaf
// package so provider implementations can wrap them without importing
// the parent ai package (whose factory imports the providers).
package aierrors

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)
