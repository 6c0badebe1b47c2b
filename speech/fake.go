package speech

import (
	"context"
	"sync"
)

// Fake is a Recognizer for tests. It records every call and returns a
// canned transcript (or error).
type Fake struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	FlacLen int
	Lang    string
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Recognize(_ context.Context, flacData []byte, lang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{FlacLen: len(flacData), Lang: lang})
	f.mu.Unlock()
	if f.Err != nil {
		return "", &ServiceError{Provider: f.Name(), Err: f.Err}
	}
	return f.Text, nil
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
