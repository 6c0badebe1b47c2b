package translate

import (
	"context"
	"fmt"
	"sync"
)

// Fake records calls and answers with a canned transform, for tests.
type Fake struct {
	Err error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Text   string
	Source string
	Target string
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Translate(_ context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Text: text, Source: source, Target: target})
	f.mu.Unlock()
	if f.Err != nil {
		return "", &ServiceError{Provider: f.Name(), Err: f.Err}
	}
	return fmt.Sprintf("[%s] %s", target, text), nil
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
