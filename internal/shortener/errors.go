package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by storage lookups that match nothing.
	ErrNotFound = errors.New("short url not found")

	// ErrInvalidCode is returned by storage when a code is outside the safe alphabet.
	ErrInvalidCode = errors.New("code must contain only alphanumeric characters (0-9, A-Z, a-z)")

	// ErrUnknownClient is returned by client lookups that match nothing.
	ErrUnknownClient = errors.New("unknown client")

	// ErrCodeTaken is returned by Storage.Create when the client already uses the code.
	ErrCodeTaken = errors.New("code already taken for client")

	// ErrGeneration matches every GenerationError via errors.Is.
	ErrGeneration = errors.New("code generation failed")

	// ErrUnsupportedStrategy matches every UnsupportedStrategyError via errors.Is.
	ErrUnsupportedStrategy = errors.New("unsupported shortening strategy")
)

// GenerationError reports that a strategy could not produce a valid code.
type GenerationError struct {
	Strategy StrategyName
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generating code: %v", e.Strategy, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// UnsupportedStrategyError reports an identifier missing from the strategy registry.
type UnsupportedStrategyError struct {
	Name StrategyName
}

func (e *UnsupportedStrategyError) Error() string {
	return fmt.Sprintf("unsupported shortening strategy %q", e.Name)
}

func (e *UnsupportedStrategyError) Is(target error) bool {
	return target == ErrUnsupportedStrategy
}
