package detect

import "context"

// Fake answers every detection with a fixed result.
type Fake struct {
	Code string // empty means Unresolved
}

func NewFake(code string) *Fake { return &Fake{Code: code} }

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Detect(_ context.Context, _ string) Result {
	if f.Code == "" {
		return Unresolved()
	}
	return Detected(f.Code)
}
