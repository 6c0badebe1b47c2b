// Package speech captures one utterance from the microphone and turns it
// into text via a recognition provider. End-of-utterance is decided by
// VAD: once voice has been heard, a stretch of trailing silence closes
// the capture; if no voice ever arrives, the capture fails with
// ErrNoSpeech.
package speech

import (
	"context"
	"errors"
	"os"
)

// ErrNoSpeech is returned when nothing recognizable was said: either the
// microphone stayed silent or the provider returned an empty transcript.
var ErrNoSpeech = errors.New("no speech detected")

type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Provider + " recognition: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Recognizer converts one FLAC-encoded utterance into a transcript.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, flacData []byte, lang string) (string, error)
}

// NewRecognizer picks a provider from the environment: Groq whisper when
// GROQ_API_KEY is set, otherwise the keyless Google speech endpoint.
func NewRecognizer() Recognizer {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key)
	}
	return NewGoogle()
}
