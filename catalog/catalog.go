// Package catalog holds the fixed set of languages the translator surfaces.
// The list is ordered for display; codes are validated for uniqueness at
// startup so a bad edit fails immediately instead of at lookup time.
package catalog

import (
	"errors"
	"fmt"
)

// AutoCode is the sentinel meaning "no explicit source language selected";
// detection decides. It is never a valid target.
const AutoCode = "auto"

// AutoName is the display name of the auto-detect sentinel entry.
const AutoName = "Auto Detect"

// DefaultTarget is the target selector value on startup.
const DefaultTarget = "French"

var ErrUnknownLanguage = errors.New("unknown language")

type Entry struct {
	Name string
	Code string
}

var entries = []Entry{
	{AutoName, AutoCode},
	{"English", "en"},
	{"French", "fr"},
	{"Spanish", "es"},
	{"German", "de"},
	{"Italian", "it"},
	{"Portuguese", "pt"},
	{"Arabic", "ar"},
	{"Chinese (Simplified)", "zh-CN"},
	{"Japanese", "ja"},
	{"Korean", "ko"},
	{"Russian", "ru"},
}

func init() {
	if err := validate(); err != nil {
		panic(err)
	}
}

func validate() error {
	names := make(map[string]bool, len(entries))
	codes := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Code == "" {
			return fmt.Errorf("catalog: empty entry %+v", e)
		}
		if names[e.Name] {
			return fmt.Errorf("catalog: duplicate name %q", e.Name)
		}
		if codes[e.Code] {
			return fmt.Errorf("catalog: duplicate code %q", e.Code)
		}
		names[e.Name] = true
		codes[e.Code] = true
	}
	return nil
}

// Resolve maps a display name to its language code.
func Resolve(name string) (string, error) {
	for _, e := range entries {
		if e.Name == name {
			return e.Code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
}

// NameOf maps a code back to its display name, or "" if the code is not
// in the catalog (detection can yield codes we do not list).
func NameOf(code string) string {
	for _, e := range entries {
		if e.Code == code {
			return e.Name
		}
	}
	return ""
}

// All returns the catalog in display order. The returned slice is a copy.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Names returns the display names in catalog order.
func Names() []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
