// Package translate wraps the machine-translation provider behind a small
// interface so workflows and tests do not care which engine answers.
package translate

import "context"

// Auto is accepted as the source code; the provider then detects the
// source language on its side.
const Auto = "auto"

type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Provider + " translation: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

type Translator interface {
	Name() string
	// Translate renders text from source into target. source may be Auto
	// or a code the catalog does not know (detection output); target must
	// be a concrete language code.
	Translate(ctx context.Context, text, source, target string) (string, error)
}
