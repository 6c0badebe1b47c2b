// Package history appends completed translation events to a CSV log.
// The log is append-only: a header row is written when the file is first
// created, every event after that is exactly one data row.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

const timeFormat = "2006-01-02 15:04:05"

type Mode string

const (
	ModeText     Mode = "text"
	ModeSpeech   Mode = "speech"
	ModeRealTime Mode = "real-time"
)

var header = []string{"timestamp", "mode", "source_lang", "target_lang", "source_text", "translated_text"}

type Event struct {
	Time           time.Time
	Mode           Mode
	SourceLang     string
	TargetLang     string
	SourceText     string
	TranslatedText string
}

// Logger serializes appends so rows from the real-time loop and one-shot
// workflows never interleave mid-row.
type Logger struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Path() string { return l.path }

// Append writes one event row, creating the file with a header row first if
// it does not exist yet. The file is opened per call so an external rotation
// or deletion between events is picked up cleanly.
func (l *Logger) Append(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening history log: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history log: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("writing history header: %w", err)
		}
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	row := []string{
		ts.Format(timeFormat),
		string(ev.Mode),
		ev.SourceLang,
		ev.TargetLang,
		ev.SourceText,
		ev.TranslatedText,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("writing history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing history row: %w", err)
	}
	return nil
}
