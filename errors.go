package md2slides

import "errors"

// Sentinel errors for library operations.
var (
	// Language errors.
	ErrInvalidLanguage = errors.New("invalid language tag")
	ErrUnknownLanguage = errors.New("cannot handle code for this language")

	// Registry errors.
	ErrNilRegistry = errors.New("registry cannot be nil")
	ErrNilHandler  = errors.New("handler cannot be nil")

	// Directive errors.
	ErrAmbiguousWants   = errors.New("wants was ignored")
	ErrFragmentNotFound = errors.New("append fragment not found")

	// Outcome errors.
	ErrAssertion   = errors.New("code outcome did not match wants")
	ErrEmptyResult = errors.New("execution result has neither compile nor run outcome")
)
