// Package voice turns text into spoken audio. Synthesizers produce an
// MP3 file on disk; playing it is the caller's business.
package voice

import "context"

type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Provider + " synthesis: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Synthesizer renders text in the given language to an MP3 file and
// returns its path. The file lives in the OS temp dir; callers may
// remove it after playback.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, lang string) (string, error)
}
