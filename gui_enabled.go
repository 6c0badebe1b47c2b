//go:build gui

package main

import (
	"fmt"
	"os"

	"lingo/gui"
	"lingo/session"
)

func runGUI(ctrl *session.Controller, micDevice string) {
	_ = micDevice
	a := gui.NewApp(ctrl)
	ctrl.SetSink(a)
	if err := gui.Run(a, version); err != nil {
		fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
	}
}
