package voice

import (
	"context"
	"os"
	"sync"
)

// Fake is a Synthesizer for tests: it writes a stub file per call and
// records what was asked for.
type Fake struct {
	Err error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Text string
	Lang string
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Synthesize(_ context.Context, text, lang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Text: text, Lang: lang})
	f.mu.Unlock()
	if f.Err != nil {
		return "", &ServiceError{Provider: f.Name(), Err: f.Err}
	}
	tmp, err := os.CreateTemp("", "lingo-tts-fake-*.mp3")
	if err != nil {
		return "", err
	}
	tmp.WriteString("fake-audio")
	tmp.Close()
	return tmp.Name(), nil
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
