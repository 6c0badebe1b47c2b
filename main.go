package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"lingo/audio"
	"lingo/catalog"
	"lingo/detect"
	"lingo/doctor"
	"lingo/encoder"
	"lingo/history"
	"lingo/hotkey"
	"lingo/log"
	"lingo/session"
	"lingo/speech"
	"lingo/translate"
	"lingo/voice"
)

var version = "dev"

const defaultHistoryPath = "translation_history.csv"

var (
	controller   *session.Controller
	shutdownOnce sync.Once
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if controller != nil {
			controller.StopRealTime()
			if n := controller.Translations(); n > 0 {
				log.SessionEnd(n)
			}
		}
		shutdownTUI()
		log.Close()
		os.Exit(0)
	})
}

// shutdownTUI quits the Bubble Tea program and waits for Run to return,
// so the quit is processed and the terminal restored before the process
// exits. No-op when no TUI is attached or it has already finished.
func shutdownTUI() {
	if p := tuiProgramRef(); p != nil {
		p.Quit()
		p.Wait()
	}
}

func run() {
	historyFlag := flag.String("history", defaultHistoryPath, "Path to the translation history CSV")
	sourceFlag := flag.String("source", catalog.AutoName, "Source language name (e.g. German, or Auto Detect)")
	targetFlag := flag.String("target", catalog.DefaultTarget, "Target language name (e.g. French)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	hotkeyFlag := flag.Bool("hotkey", false, "Register a global Ctrl+Shift+Space push-to-talk hotkey")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, fake providers)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Bool("gui", false, "Run with GUI window (requires a build with -tags gui)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("lingo %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

	if *testFlag {
		wavPath := ""
		if args := flag.Args(); len(args) > 0 {
			wavPath = args[0]
		}
		runTestMode(*historyFlag, wavPath)
		return
	}

	translator := translate.NewGoogle()
	detector := detect.NewGoogle()
	synthesizer := voice.NewGoogle()
	recognizer := speech.NewRecognizer()

	go translator.Warm()
	if w, ok := recognizer.(interface{ Warm() }); ok {
		go w.Warm()
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(translator.Name(), recognizer.Name(), synthesizer.Name())
	}

	// Microphone is optional: without it the text workflows still work.
	listener, micDevice := initMicrophone(*setupFlag, *deviceFlag, recognizer)

	hist := history.New(*historyFlag)
	log.Infof("history file: %s", hist.Path())

	cfg := session.Config{
		Translator:  translator,
		Detector:    detector,
		Synthesizer: synthesizer,
		History:     hist,
		Sink:        &tuiSink{},
	}
	if listener != nil {
		cfg.Listener = listener
	}
	controller = session.New(cfg)

	if err := controller.SetSource(*sourceFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v (known: %v)\n", err, catalog.Names())
		os.Exit(1)
	}
	if err := controller.SetTarget(*targetFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	if *hotkeyFlag {
		if listener == nil {
			fmt.Fprintln(os.Stderr, "Warning: -hotkey ignored, no microphone available")
		} else if err := startHotkey(controller); err != nil {
			log.Errorf("hotkey register error: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: hotkey unavailable: %v\n", err)
		}
	}

	if guiRequested() {
		runGUI(controller, micDevice)
		gracefulShutdown()
		return
	}

	if *tuiFlag {
		runTUI(controller, micDevice, listener)
		gracefulShutdown()
		return
	}

	// Headless: only the hotkey (if any) drives the session.
	select {}
}

// initMicrophone wires the capture chain. Any failure degrades to
// text-only mode instead of refusing to start.
func initMicrophone(setup bool, deviceName string, rec speech.Recognizer) (*speech.Capture, string) {
	ctx, err := audio.NewContext()
	if err != nil {
		log.Warnf("audio context init: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: no audio support: %v\n", err)
		return nil, ""
	}

	var selected *audio.DeviceInfo
	if deviceName != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == deviceName {
					selected = &devices[i]
					break
				}
			}
		}
		if selected == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using default\n", deviceName)
		}
	} else if setup {
		selected, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			selected = nil
		}
	}

	capture, err := ctx.NewCapture(selected, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		log.Errorf("capture device init: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: microphone unavailable: %v\n", err)
		ctx.Close()
		return nil, ""
	}

	name := "system default"
	if selected != nil {
		name = selected.Name
		if audio.IsBluetooth(name) {
			fmt.Fprintln(os.Stderr, "Warning: Bluetooth microphone selected, expect lower audio quality")
		}
	}
	listener := speech.NewCapture(capture, rec)
	log.Infof("microphone: %s via %s", name, listener.Provider())
	return listener, name
}

// startHotkey registers a global push-to-talk: pressing the combo runs
// one speech-to-text capture into the input buffer.
func startHotkey(ctrl *session.Controller) error {
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		return err
	}
	go hotkeyLoop(ctrl, hk)
	return nil
}

func hotkeyLoop(ctrl *session.Controller, hk hotkey.Hotkey) {
	for {
		select {
		case <-hk.Keydown():
			if ctrl.RealTimeActive() {
				continue
			}
			go func() {
				if _, err := ctrl.SpeechToText(context.Background()); err != nil {
					log.Errorf("hotkey capture: %v", err)
				}
			}()
		case <-hk.Keyup():
			// capture endpoints itself on silence
		}
	}
}

func guiRequested() bool {
	for _, arg := range os.Args[1:] {
		if arg == "-gui" || arg == "--gui" || arg == "-gui=true" || arg == "--gui=true" {
			return true
		}
	}
	return false
}
