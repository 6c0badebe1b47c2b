// Package detect identifies the language of a piece of text. Detection is
// best-effort: failures never escape the adapter, they collapse into the
// Unknown sentinel and callers branch on Resolved().
package detect

import "context"

// Unknown is the sentinel code recorded when detection cannot decide.
const Unknown = "unknown"

// Result is the typed outcome of a detection attempt. The zero value is
// not valid; use Unresolved() for the failure case.
type Result struct {
	Code string
}

func Detected(code string) Result { return Result{Code: code} }

func Unresolved() Result { return Result{Code: Unknown} }

// Resolved reports whether detection produced a concrete language code.
func (r Result) Resolved() bool { return r.Code != Unknown && r.Code != "" }

type Detector interface {
	Name() string
	// Detect never fails: any provider or network error yields Unresolved().
	Detect(ctx context.Context, text string) Result
}
