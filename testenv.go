package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lingo/audio"
	"lingo/detect"
	"lingo/encoder"
	"lingo/history"
	"lingo/log"
	"lingo/playback"
	"lingo/session"
	"lingo/speech"
	"lingo/translate"
	"lingo/voice"
)

// stdoutSink prints controller events line by line so the integration
// driver can assert on them.
type stdoutSink struct{}

func (stdoutSink) InputChanged(text string)  { fmt.Printf("INPUT %s\n", text) }
func (stdoutSink) OutputChanged(text string) { fmt.Printf("OUTPUT %s\n", oneLine(text)) }
func (stdoutSink) Failure(stage string, err error) {
	fmt.Printf("FAILURE %s %s\n", stage, oneLine(err.Error()))
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}

// runTestMode drives the controller over a stdin protocol with fake
// providers: no network, no real audio devices. When a WAV file is
// given, speech workflows run the full capture chain over it; the
// recognizer is still canned.
func runTestMode(historyPath, wavPath string) {
	playback.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	translator := translate.NewFake()
	detector := detect.NewFake("en")
	recognizer := &speech.Fake{Text: "spoken test phrase"}

	var listener *speech.Capture
	var fakeCapture *audio.FakeCapture
	if wavPath != "" {
		fakeCtx, err := audio.NewFakeContext(wavPath, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			os.Exit(1)
		}
		capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
			SampleRate: encoder.SampleRate, Channels: encoder.Channels,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
			os.Exit(1)
		}
		defer capture.Close()
		fakeCapture = capture.(*audio.FakeCapture)
		listener = speech.NewCapture(capture, recognizer)
	}

	cfg := session.Config{
		Translator:  translator,
		Detector:    detector,
		Synthesizer: &voice.Fake{},
		History:     history.New(historyPath),
		Sink:        stdoutSink{},
	}
	if listener != nil {
		cfg.Listener = listener
	}
	ctrl := session.New(cfg)

	log.SessionStart(translator.Name(), recognizer.Name(), "fake")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "SOURCE":
			if err := ctrl.SetSource(arg); err != nil {
				fmt.Printf("ERROR %v\n", err)
			}
		case "TARGET":
			if err := ctrl.SetTarget(arg); err != nil {
				fmt.Printf("ERROR %v\n", err)
			}
		case "DETECT_AS":
			detector.Code = arg // empty means unresolved
		case "HEAR":
			recognizer.Text = arg
		case "INPUT":
			ctrl.SetInput(arg)
		case "TRANSLATE":
			if out, err := ctrl.TranslateText(context.Background()); err == nil {
				fmt.Printf("OK %s\n", oneLine(out))
			}
		case "SPEAK":
			if err := ctrl.SpeakOutput(context.Background()); err == nil {
				fmt.Println("OK")
			}
		case "LISTEN":
			if text, err := ctrl.SpeechToText(context.Background()); err == nil {
				fmt.Printf("OK %s\n", oneLine(text))
			}
		case "SPEECH":
			if err := ctrl.SpeechToSpeech(context.Background()); err == nil {
				fmt.Println("OK")
			}
		case "COPY":
			if err := ctrl.CopyOutput(); err == nil {
				fmt.Println("OK")
			}
		case "RT_START":
			if err := ctrl.StartRealTime(); err != nil {
				fmt.Printf("ERROR %v\n", err)
			} else {
				fmt.Println("OK")
			}
		case "RT_STOP":
			ctrl.StopRealTime()
			fmt.Println("OK")
		case "WAIT_AUDIO_DONE":
			if fakeCapture != nil {
				<-fakeCapture.AudioDone()
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			ctrl.StopRealTime()
			log.SessionEnd(ctrl.Translations())
			os.Exit(0)
		}
	}
	ctrl.StopRealTime()
	log.SessionEnd(ctrl.Translations())
}
