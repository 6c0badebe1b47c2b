// Package session orchestrates the translation workflows. The Controller
// owns the selector and buffer state and talks to the service adapters;
// surfaces (TUI, GUI, test harness) attach through the Sink interface and
// never touch adapters directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"lingo/catalog"
	"lingo/clipboard"
	"lingo/detect"
	"lingo/history"
	"lingo/log"
	"lingo/playback"
	"lingo/speech"
	"lingo/translate"
	"lingo/voice"
)

var (
	ErrEmptyInput     = errors.New("nothing to translate")
	ErrInvalidTarget  = errors.New("target language cannot be auto")
	ErrRealTimeActive = errors.New("real-time translation already running")
	ErrNoMicrophone   = errors.New("no microphone available")
)

// realTimePhraseLimit bounds each captured phrase in the real-time loop so
// a talkative speaker still produces rows at a steady pace.
const realTimePhraseLimit = 5 * time.Second

// defaultRecognitionLang is used when the source selector is on auto
// detect; the recognizer needs some hint even then.
const defaultRecognitionLang = "en-US"

// Listener is what the controller needs from the speech capture adapter.
type Listener interface {
	Listen(ctx context.Context, maxUtterance time.Duration) (string, error)
	SetLanguage(lang string)
}

// Sink receives display updates and failure notifications. All methods
// may be called from background goroutines.
type Sink interface {
	InputChanged(text string)
	OutputChanged(text string)
	// Failure reports one aborted workflow; stage names the adapter that
	// failed ("translate", "speech", "voice", "history", "clipboard",
	// "input" for local validation).
	Failure(stage string, err error)
}

type nopSink struct{}

func (nopSink) InputChanged(string)             {}
func (nopSink) OutputChanged(string)            {}
func (nopSink) Failure(stage string, err error) {}

// State is a snapshot of the controller's selectors and buffers. Source
// and Target hold catalog display names.
type State struct {
	Source string
	Target string
	Input  string
	Output string
}

type Config struct {
	Translator  translate.Translator
	Detector    detect.Detector
	Listener    Listener // nil means no microphone
	Synthesizer voice.Synthesizer
	History     *history.Logger
	Sink        Sink
}

type Controller struct {
	translator translate.Translator
	detector   detect.Detector
	listener   Listener
	synth      voice.Synthesizer
	hist       *history.Logger
	sink       Sink

	playFn func(path string) error
	copyFn func(text string) error

	mu           sync.Mutex
	state        State
	translations int

	rtMu     sync.Mutex
	rtCancel context.CancelFunc
	rtDone   chan struct{}
}

func New(cfg Config) *Controller {
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Controller{
		translator: cfg.Translator,
		detector:   cfg.Detector,
		listener:   cfg.Listener,
		synth:      cfg.Synthesizer,
		hist:       cfg.History,
		sink:       sink,
		playFn:     playback.PlayFile,
		copyFn:     clipboard.Copy,
		state: State{
			Source: catalog.AutoName,
			Target: catalog.DefaultTarget,
		},
	}
}

// SetSink swaps the attached surface. Pass nil to detach.
func (c *Controller) SetSink(s Sink) {
	if s == nil {
		s = nopSink{}
	}
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

func (c *Controller) notify() Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sink
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Translations reports how many translation workflows completed.
func (c *Controller) Translations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.translations
}

// SetSource selects the source language by display name. The recognition
// language hint follows the selection; auto detect falls back to a
// default hint since the recognizer cannot be asked to guess.
func (c *Controller) SetSource(name string) error {
	code, err := catalog.Resolve(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Source = name
	c.mu.Unlock()
	if c.listener != nil {
		if code == catalog.AutoCode {
			c.listener.SetLanguage(defaultRecognitionLang)
		} else {
			c.listener.SetLanguage(code)
		}
	}
	return nil
}

func (c *Controller) SetTarget(name string) error {
	if name == catalog.AutoName {
		return ErrInvalidTarget
	}
	if _, err := catalog.Resolve(name); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Target = name
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.state.Input = text
	c.mu.Unlock()
}

func (c *Controller) fail(stage string, err error) error {
	log.Errorf("%s: %v", stage, err)
	c.notify().Failure(stage, err)
	return err
}

// resolveSource turns the current selection into a provider-side source
// code and the code recorded in history. Auto detect consults the
// detector; an unresolved detection keeps provider-side auto and records
// the unknown sentinel.
func (c *Controller) resolveSource(ctx context.Context, selected, text string) (providerCode, logCode string) {
	if selected != catalog.AutoCode {
		return selected, selected
	}
	res := c.detector.Detect(ctx, text)
	if res.Resolved() {
		return res.Code, res.Code
	}
	return translate.Auto, detect.Unknown
}

// TranslateText translates the input buffer into the target language and
// replaces the output buffer. One history row is written after the full
// chain succeeds.
func (c *Controller) TranslateText(ctx context.Context) (string, error) {
	snap := c.Snapshot()
	input := strings.TrimSpace(snap.Input)
	if input == "" {
		return "", c.fail("input", ErrEmptyInput)
	}
	out, err := c.translateAndRecord(ctx, history.ModeText, snap, input)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Controller) translateAndRecord(ctx context.Context, mode history.Mode, snap State, input string) (string, error) {
	out, logCode, targetCode, err := c.translateInput(ctx, snap, input)
	if err != nil {
		return "", err
	}
	c.record(mode, logCode, targetCode, input, out)
	return out, nil
}

// translateInput resolves the languages, translates and replaces the
// output buffer. It writes no history; callers record once the rest of
// their chain has succeeded.
func (c *Controller) translateInput(ctx context.Context, snap State, input string) (out, logCode, targetCode string, err error) {
	sourceSel, err := catalog.Resolve(snap.Source)
	if err != nil {
		return "", "", "", c.fail("input", err)
	}
	targetCode, err = catalog.Resolve(snap.Target)
	if err != nil {
		return "", "", "", c.fail("input", err)
	}

	var providerCode string
	providerCode, logCode = c.resolveSource(ctx, sourceSel, input)

	out, err = c.translator.Translate(ctx, input, providerCode, targetCode)
	if err != nil {
		return "", "", "", c.fail("translate", err)
	}

	c.mu.Lock()
	c.state.Output = out
	c.translations++
	c.mu.Unlock()
	c.notify().OutputChanged(out)
	return out, logCode, targetCode, nil
}

func (c *Controller) record(mode history.Mode, logCode, targetCode, input, out string) {
	log.Translation(string(mode), logCode, targetCode, len(input))
	if err := c.hist.Append(history.Event{
		Mode:           mode,
		SourceLang:     logCode,
		TargetLang:     targetCode,
		SourceText:     input,
		TranslatedText: out,
	}); err != nil {
		// The translation already succeeded; surface the logging problem
		// but keep the output.
		c.fail("history", err)
	}
}

// SpeakOutput synthesizes the output buffer in the target language and
// plays it detached. No history row.
func (c *Controller) SpeakOutput(ctx context.Context) error {
	snap := c.Snapshot()
	out := strings.TrimSpace(snap.Output)
	if out == "" {
		return c.fail("input", ErrEmptyInput)
	}
	targetCode, err := catalog.Resolve(snap.Target)
	if err != nil {
		return c.fail("input", err)
	}
	path, err := c.synth.Synthesize(ctx, out, targetCode)
	if err != nil {
		return c.fail("voice", err)
	}
	c.playDetached(path)
	return nil
}

func (c *Controller) playDetached(path string) {
	go func() {
		if err := c.playFn(path); err != nil {
			log.Errorf("playback: %v", err)
		}
		os.Remove(path)
	}()
}

// SpeechToText captures one utterance and writes the transcript into the
// input buffer. No translation, no history row.
func (c *Controller) SpeechToText(ctx context.Context) (string, error) {
	if c.listener == nil {
		return "", c.fail("speech", ErrNoMicrophone)
	}
	text, err := c.listener.Listen(ctx, 0)
	if err != nil {
		return "", c.fail("speech", err)
	}
	log.Transcript(text)
	c.mu.Lock()
	c.state.Input = text
	c.mu.Unlock()
	c.notify().InputChanged(text)
	return text, nil
}

// SpeechToSpeech captures an utterance, translates it and speaks the
// result. Any stage failure short-circuits the chain; the history row is
// written only when every stage, synthesis included, has succeeded.
func (c *Controller) SpeechToSpeech(ctx context.Context) error {
	if c.listener == nil {
		return c.fail("speech", ErrNoMicrophone)
	}
	text, err := c.listener.Listen(ctx, 0)
	if err != nil {
		return c.fail("speech", err)
	}
	log.Transcript(text)
	c.mu.Lock()
	c.state.Input = text
	snap := c.state
	c.mu.Unlock()
	c.notify().InputChanged(text)

	out, logCode, targetCode, err := c.translateInput(ctx, snap, text)
	if err != nil {
		return err
	}
	path, err := c.synth.Synthesize(ctx, out, targetCode)
	if err != nil {
		return c.fail("voice", err)
	}
	c.record(history.ModeSpeech, logCode, targetCode, text, out)
	c.playDetached(path)
	return nil
}

// CopyOutput places the output buffer on the system clipboard.
func (c *Controller) CopyOutput() error {
	snap := c.Snapshot()
	if strings.TrimSpace(snap.Output) == "" {
		return c.fail("input", ErrEmptyInput)
	}
	if err := c.copyFn(snap.Output); err != nil {
		return c.fail("clipboard", err)
	}
	return nil
}

// StartRealTime launches the continuous listen-translate loop on its own
// goroutine. At most one loop runs at a time.
func (c *Controller) StartRealTime() error {
	if c.listener == nil {
		return c.fail("speech", ErrNoMicrophone)
	}
	c.rtMu.Lock()
	defer c.rtMu.Unlock()
	if c.rtCancel != nil {
		return ErrRealTimeActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.rtCancel = cancel
	c.rtDone = done
	go c.realTimeLoop(ctx, done)
	log.Info("real-time loop started")
	return nil
}

// StopRealTime cancels the loop and waits for its goroutine to exit.
// Safe to call when no loop is running.
func (c *Controller) StopRealTime() {
	c.rtMu.Lock()
	cancel, done := c.rtCancel, c.rtDone
	c.rtCancel, c.rtDone = nil, nil
	c.rtMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info("real-time loop stopped")
}

func (c *Controller) RealTimeActive() bool {
	c.rtMu.Lock()
	defer c.rtMu.Unlock()
	return c.rtCancel != nil
}

func (c *Controller) realTimeLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		text, err := c.listener.Listen(ctx, realTimePhraseLimit)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Silence and flaky recognition are expected here; skip the
			// iteration without bothering the surface.
			if !errors.Is(err, speech.ErrNoSpeech) {
				log.Errorf("real-time capture: %v", err)
			}
			continue
		}
		log.Transcript(text)

		snap := c.Snapshot()
		sourceSel, err := catalog.Resolve(snap.Source)
		if err != nil {
			log.Errorf("real-time source: %v", err)
			continue
		}
		targetCode, err := catalog.Resolve(snap.Target)
		if err != nil {
			log.Errorf("real-time target: %v", err)
			continue
		}
		providerCode, logCode := c.resolveSource(ctx, sourceSel, text)

		out, err := c.translator.Translate(ctx, text, providerCode, targetCode)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("real-time translate: %v", err)
			continue
		}

		c.mu.Lock()
		c.state.Output += fmt.Sprintf("You: %s\n→ %s\n", text, out)
		full := c.state.Output
		c.translations++
		c.mu.Unlock()
		c.notify().OutputChanged(full)

		log.Translation(string(history.ModeRealTime), logCode, targetCode, len(text))
		if err := c.hist.Append(history.Event{
			Mode:           history.ModeRealTime,
			SourceLang:     logCode,
			TargetLang:     targetCode,
			SourceText:     text,
			TranslatedText: out,
		}); err != nil {
			log.Errorf("real-time history: %v", err)
		}
	}
}
