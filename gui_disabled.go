//go:build !gui

package main

import (
	"fmt"
	"os"

	"lingo/session"
)

func runGUI(_ *session.Controller, _ string) {
	fmt.Fprintln(os.Stderr, "lingo: built without GUI support (rebuild with -tags gui)")
	os.Exit(1)
}
