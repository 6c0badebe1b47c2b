//go:build gui

// Package gui is the windowed surface: the same workflows as the TUI,
// driven through fyne widgets.
package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lingo/catalog"
	"lingo/session"
)

type App struct {
	ctrl *session.Controller

	fyneApp fyne.App
	window  fyne.Window

	input    *widget.Entry
	output   *widget.Entry
	status   *widget.Label
	rtButton *widget.Button
}

func NewApp(ctrl *session.Controller) *App {
	return &App{ctrl: ctrl}
}

func Run(a *App, version string) error {
	a.fyneApp = app.NewWithID("io.lingo.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{})
	a.window = a.fyneApp.NewWindow("lingo " + version)

	snap := a.ctrl.Snapshot()

	sourceSelect := widget.NewSelect(catalog.Names(), func(name string) {
		a.ctrl.SetSource(name)
	})
	sourceSelect.SetSelected(snap.Source)

	targetSelect := widget.NewSelect(catalog.Names()[1:], func(name string) {
		a.ctrl.SetTarget(name)
	})
	targetSelect.SetSelected(snap.Target)

	a.input = widget.NewMultiLineEntry()
	a.input.SetPlaceHolder("Type text to translate...")
	a.input.Wrapping = fyne.TextWrapWord

	a.output = widget.NewMultiLineEntry()
	a.output.Wrapping = fyne.TextWrapWord
	a.output.Disable()

	a.status = widget.NewLabel("")

	translateBtn := widget.NewButton("Translate", func() {
		a.setStatus("translating...")
		a.ctrl.SetInput(a.input.Text)
		go func() {
			if _, err := a.ctrl.TranslateText(context.Background()); err == nil {
				a.setStatus("")
			}
		}()
	})
	speakBtn := widget.NewButton("Speak", func() {
		go a.ctrl.SpeakOutput(context.Background())
	})
	listenBtn := widget.NewButton("Listen", func() {
		a.setStatus("listening...")
		go func() {
			if _, err := a.ctrl.SpeechToText(context.Background()); err == nil {
				a.setStatus("")
			}
		}()
	})
	speechBtn := widget.NewButton("Voice → Voice", func() {
		a.setStatus("listening...")
		go func() {
			if err := a.ctrl.SpeechToSpeech(context.Background()); err == nil {
				a.setStatus("")
			}
		}()
	})
	a.rtButton = widget.NewButton("Start Real-Time", func() {
		if a.ctrl.RealTimeActive() {
			go func() {
				a.ctrl.StopRealTime()
				fyne.Do(func() { a.rtButton.SetText("Start Real-Time") })
				a.setStatus("")
			}()
			return
		}
		if err := a.ctrl.StartRealTime(); err == nil {
			a.rtButton.SetText("Stop Real-Time")
			a.setStatus("real-time running")
		}
	})
	copyBtn := widget.NewButton("Copy", func() {
		if err := a.ctrl.CopyOutput(); err == nil {
			a.setStatus("copied to clipboard")
		}
	})

	buttons := container.NewHBox(translateBtn, speakBtn, listenBtn, speechBtn, a.rtButton, copyBtn)
	selectors := container.NewHBox(widget.NewLabel("From"), sourceSelect, widget.NewLabel("To"), targetSelect)

	a.window.SetContent(container.NewBorder(
		container.NewVBox(selectors, a.input, buttons),
		a.status,
		nil, nil,
		a.output,
	))
	a.window.Resize(fyne.NewSize(720, 520))
	a.window.ShowAndRun()
	return nil
}

func (a *App) setStatus(text string) {
	fyne.Do(func() { a.status.SetText(text) })
}

// session.Sink implementation; called from workflow goroutines.

func (a *App) InputChanged(text string) {
	fyne.Do(func() { a.input.SetText(text) })
}

func (a *App) OutputChanged(text string) {
	fyne.Do(func() { a.output.SetText(text) })
}

func (a *App) Failure(stage string, err error) {
	a.setStatus(fmt.Sprintf("%s: %v", stage, err))
}
