// Package doctor runs interactive system diagnostics: can we reach the
// translation services, see a microphone, use the clipboard.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"lingo/audio"
	"lingo/catalog"
	"lingo/clipboard"
	"lingo/detect"
	"lingo/encoder"
	"lingo/translate"
	"lingo/voice"
)

const checkTimeout = 15 * time.Second

// Run executes the diagnostic checks and returns an exit code (0=all
// pass, 1=any fail).
func Run() int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("lingo doctor - system diagnostics")
	fmt.Println("=================================")

	checks := []struct {
		name string
		fn   func() error
	}{
		{"language catalog", checkCatalog},
		{"translation service", checkTranslation},
		{"language detection", checkDetection},
		{"speech synthesis", checkSynthesis},
		{"microphone", checkMicrophone},
		{"clipboard", checkClipboard},
	}

	allPass := true
	for i, c := range checks {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(checks), c.name)
		if err := c.fn(); err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			allPass = false
		}
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkCatalog() error {
	code, err := catalog.Resolve(catalog.DefaultTarget)
	if err != nil {
		return err
	}
	fmt.Printf("  PASS: %d languages, default target %s (%s)\n",
		len(catalog.All()), catalog.DefaultTarget, code)
	return nil
}

func checkTranslation() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	out, err := translate.NewGoogle().Translate(ctx, "hello", "en", "fr")
	if err != nil {
		return err
	}
	fmt.Printf("  PASS: \"hello\" -> %q\n", out)
	return nil
}

func checkDetection() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	res := detect.NewGoogle().Detect(ctx, "guten morgen, wie geht es dir?")
	if !res.Resolved() {
		return errors.New("detection unresolved (endpoint unreachable?)")
	}
	name := catalog.NameOf(res.Code)
	if name == "" {
		name = res.Code
	}
	fmt.Printf("  PASS: detected %s\n", name)
	return nil
}

func checkSynthesis() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	path, err := voice.NewGoogle().Synthesize(ctx, "bonjour", "fr")
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	os.Remove(path)
	if err != nil {
		return err
	}
	fmt.Printf("  PASS: synthesized %d bytes of audio\n", st.Size())
	return nil
}

func checkMicrophone() error {
	ctx, err := audio.NewContext()
	if err != nil {
		return fmt.Errorf("cannot connect to audio: %w", err)
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		return fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return errors.New("no capture devices found")
	}

	capture, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: encoder.SampleRate, Channels: encoder.Channels,
	})
	if err != nil {
		return fmt.Errorf("cannot open default device: %w", err)
	}
	defer capture.Close()

	if err := capture.Start(); err != nil {
		return fmt.Errorf("cannot start capture: %w", err)
	}
	time.Sleep(200 * time.Millisecond)
	capture.Stop()

	fmt.Printf("  PASS: %d device(s), default opens and records\n", len(devices))
	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = " (bluetooth: lower quality)"
		}
		fmt.Printf("    - %s%s\n", d.Name, tag)
	}
	return nil
}

func checkClipboard() error {
	sentinel := fmt.Sprintf("lingo-doctor-%d", time.Now().UnixNano())
	if err := clipboard.Copy(sentinel); err != nil {
		return err
	}
	got, err := clipboard.Read()
	if err != nil {
		return err
	}
	if got != sentinel {
		return fmt.Errorf("clipboard read back %q, want %q", got, sentinel)
	}
	fmt.Println("  PASS: copy/read round trip")
	return nil
}
