//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The global hotkey library needs the main thread on macOS; run the
	// application from inside its dispatcher.
	mainthread.Init(run)
}
