package session

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lingo/catalog"
	"lingo/detect"
	"lingo/history"
	"lingo/speech"
	"lingo/translate"
	"lingo/voice"
)

// recordingSink collects every notification for assertions.
type recordingSink struct {
	mu       sync.Mutex
	inputs   []string
	outputs  []string
	failures []string // "stage: err"
}

func (s *recordingSink) InputChanged(text string) {
	s.mu.Lock()
	s.inputs = append(s.inputs, text)
	s.mu.Unlock()
}

func (s *recordingSink) OutputChanged(text string) {
	s.mu.Lock()
	s.outputs = append(s.outputs, text)
	s.mu.Unlock()
}

func (s *recordingSink) Failure(stage string, err error) {
	s.mu.Lock()
	s.failures = append(s.failures, stage+": "+err.Error())
	s.mu.Unlock()
}

func (s *recordingSink) failureStages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stages []string
	for _, f := range s.failures {
		stages = append(stages, strings.SplitN(f, ":", 2)[0])
	}
	return stages
}

// countingDetector wraps a fake and counts Detect calls.
type countingDetector struct {
	detect.Fake
	mu    sync.Mutex
	calls int
}

func (d *countingDetector) Detect(ctx context.Context, text string) detect.Result {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.Fake.Detect(ctx, text)
}

// stubListener plays back scripted Listen results; once exhausted it
// blocks until the context is cancelled.
type stubListener struct {
	mu      sync.Mutex
	results []listenResult
	lang    string
}

type listenResult struct {
	text string
	err  error
}

func (l *stubListener) SetLanguage(lang string) {
	l.mu.Lock()
	l.lang = lang
	l.mu.Unlock()
}

func (l *stubListener) language() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lang
}

func (l *stubListener) Listen(ctx context.Context, _ time.Duration) (string, error) {
	l.mu.Lock()
	var r listenResult
	if len(l.results) > 0 {
		r = l.results[0]
		l.results = l.results[1:]
		l.mu.Unlock()
		return r.text, r.err
	}
	l.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

type harness struct {
	ctrl       *Controller
	translator *translate.Fake
	detector   *countingDetector
	listener   *stubListener
	synth      *voice.Fake
	sink       *recordingSink
	histPath   string
	played     *playRecorder
	copied     *[]string
}

type playRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (p *playRecorder) play(path string) error {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	return nil
}

func (p *playRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.paths)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		translator: translate.NewFake(),
		detector:   &countingDetector{},
		listener:   &stubListener{},
		synth:      &voice.Fake{},
		sink:       &recordingSink{},
		histPath:   filepath.Join(t.TempDir(), "history.csv"),
		played:     &playRecorder{},
		copied:     &[]string{},
	}
	h.ctrl = New(Config{
		Translator:  h.translator,
		Detector:    h.detector,
		Listener:    h.listener,
		Synthesizer: h.synth,
		History:     history.New(h.histPath),
		Sink:        h.sink,
	})
	h.ctrl.playFn = h.played.play
	h.ctrl.copyFn = func(text string) error {
		*h.copied = append(*h.copied, text)
		return nil
	}
	return h
}

func (h *harness) rows(t *testing.T) [][]string {
	t.Helper()
	f, err := os.Open(h.histPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 {
		return nil
	}
	return records[1:] // skip header
}

func TestTranslateTextEmptyInput(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetInput("   ")

	_, err := h.ctrl.TranslateText(context.Background())
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(h.translator.Calls()) != 0 {
		t.Fatal("translator should not be called")
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no history rows, got %d", len(got))
	}
	if stages := h.sink.failureStages(); len(stages) != 1 || stages[0] != "input" {
		t.Fatalf("failures = %v", stages)
	}
}

func TestTranslateTextAutoDetectResolved(t *testing.T) {
	h := newHarness(t)
	h.detector.Code = "de"
	h.ctrl.SetInput("guten tag")

	out, err := h.ctrl.TranslateText(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out != "[fr] guten tag" {
		t.Fatalf("out = %q", out)
	}

	calls := h.translator.Calls()
	if len(calls) != 1 || calls[0].Source != "de" || calls[0].Target != "fr" {
		t.Fatalf("calls = %+v", calls)
	}

	rows := h.rows(t)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r[1] != "text" || r[2] != "de" || r[3] != "fr" || r[4] != "guten tag" || r[5] != "[fr] guten tag" {
		t.Fatalf("row = %v", r)
	}
	if h.ctrl.Snapshot().Output != "[fr] guten tag" {
		t.Fatal("output buffer not updated")
	}
}

func TestTranslateTextDetectionUnresolved(t *testing.T) {
	h := newHarness(t)
	// detector.Code empty: every detection is unresolved
	h.ctrl.SetInput("zzzz")

	if _, err := h.ctrl.TranslateText(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := h.translator.Calls()
	if calls[0].Source != translate.Auto {
		t.Fatalf("provider source = %q, want auto", calls[0].Source)
	}
	rows := h.rows(t)
	if rows[0][2] != detect.Unknown {
		t.Fatalf("logged source = %q, want unknown", rows[0][2])
	}
}

func TestTranslateTextConcreteSourceSkipsDetection(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.SetSource("German"); err != nil {
		t.Fatal(err)
	}
	h.ctrl.SetInput("hallo")

	if _, err := h.ctrl.TranslateText(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.detector.calls != 0 {
		t.Fatalf("detector called %d times", h.detector.calls)
	}
	if calls := h.translator.Calls(); calls[0].Source != "de" {
		t.Fatalf("source = %q", calls[0].Source)
	}
}

func TestTranslateTextFailureWritesNoRow(t *testing.T) {
	h := newHarness(t)
	h.translator.Err = errors.New("quota exceeded")
	h.ctrl.SetInput("hello")

	_, err := h.ctrl.TranslateText(context.Background())
	var svcErr *translate.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if stages := h.sink.failureStages(); len(stages) != 1 || stages[0] != "translate" {
		t.Fatalf("failures = %v", stages)
	}
	if h.ctrl.Snapshot().Output != "" {
		t.Fatal("output buffer should be untouched on failure")
	}
}

func TestSetTargetRejectsAuto(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.SetTarget(catalog.AutoName); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	if err := h.ctrl.SetTarget("Nope"); !errors.Is(err, catalog.ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestSetSourceUpdatesRecognitionLanguage(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.SetSource("Japanese"); err != nil {
		t.Fatal(err)
	}
	if got := h.listener.language(); got != "ja" {
		t.Fatalf("recognition lang = %q", got)
	}
	if err := h.ctrl.SetSource(catalog.AutoName); err != nil {
		t.Fatal(err)
	}
	if got := h.listener.language(); got != defaultRecognitionLang {
		t.Fatalf("recognition lang = %q", got)
	}
}

func TestSpeakOutputEmptyBuffer(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.SpeakOutput(context.Background()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(h.synth.Calls()) != 0 {
		t.Fatal("synthesizer should not be called")
	}
}

func TestSpeakOutputSynthesizesTargetLanguage(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetInput("hello")
	if _, err := h.ctrl.TranslateText(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.SpeakOutput(context.Background()); err != nil {
		t.Fatal(err)
	}

	calls := h.synth.Calls()
	if len(calls) != 1 || calls[0].Lang != "fr" || calls[0].Text != "[fr] hello" {
		t.Fatalf("synth calls = %+v", calls)
	}
	// playback is detached; give it a moment
	waitFor(t, func() bool { return h.played.count() == 1 })
	// one row from TranslateText only
	if got := h.rows(t); len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
}

func TestSpeechToText(t *testing.T) {
	h := newHarness(t)
	h.listener.results = []listenResult{{text: "hello there"}}

	text, err := h.ctrl.SpeechToText(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello there" {
		t.Fatalf("text = %q", text)
	}
	if h.ctrl.Snapshot().Input != "hello there" {
		t.Fatal("input buffer not updated")
	}
	if len(h.translator.Calls()) != 0 {
		t.Fatal("translator should not be called")
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestSpeechToTextNoSpeech(t *testing.T) {
	h := newHarness(t)
	h.listener.results = []listenResult{{err: speech.ErrNoSpeech}}

	_, err := h.ctrl.SpeechToText(context.Background())
	if !errors.Is(err, speech.ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	if stages := h.sink.failureStages(); len(stages) != 1 || stages[0] != "speech" {
		t.Fatalf("failures = %v", stages)
	}
}

func TestSpeechToSpeech(t *testing.T) {
	h := newHarness(t)
	h.detector.Code = "en"
	h.listener.results = []listenResult{{text: "good morning"}}

	if err := h.ctrl.SpeechToSpeech(context.Background()); err != nil {
		t.Fatal(err)
	}

	rows := h.rows(t)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r[1] != "speech" || r[2] != "en" || r[4] != "good morning" {
		t.Fatalf("row = %v", r)
	}
	if calls := h.synth.Calls(); len(calls) != 1 || calls[0].Text != "[fr] good morning" {
		t.Fatalf("synth calls = %+v", calls)
	}
	waitFor(t, func() bool { return h.played.count() == 1 })
}

func TestSpeechToSpeechShortCircuits(t *testing.T) {
	h := newHarness(t)
	h.listener.results = []listenResult{{err: speech.ErrNoSpeech}}

	err := h.ctrl.SpeechToSpeech(context.Background())
	if !errors.Is(err, speech.ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	if len(h.translator.Calls()) != 0 {
		t.Fatal("translator should not be called")
	}
	if len(h.synth.Calls()) != 0 {
		t.Fatal("synthesizer should not be called")
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestSpeechToSpeechTranslateFailure(t *testing.T) {
	h := newHarness(t)
	h.translator.Err = errors.New("down")
	h.listener.results = []listenResult{{text: "hi"}}

	if err := h.ctrl.SpeechToSpeech(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(h.synth.Calls()) != 0 {
		t.Fatal("synthesizer should not be called after translate failure")
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestSpeechToSpeechSynthesisFailureWritesNoRow(t *testing.T) {
	h := newHarness(t)
	h.synth.Err = errors.New("tts down")
	h.listener.results = []listenResult{{text: "good morning"}}

	err := h.ctrl.SpeechToSpeech(context.Background())
	var svcErr *voice.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no history rows after synthesis failure, got %v", got)
	}
	if stages := h.sink.failureStages(); len(stages) != 1 || stages[0] != "voice" {
		t.Fatalf("failures = %v", stages)
	}
	if h.played.count() != 0 {
		t.Fatal("nothing should be played")
	}
	// the translation itself succeeded, so the output buffer keeps it
	if h.ctrl.Snapshot().Output != "[fr] good morning" {
		t.Fatalf("output buffer = %q", h.ctrl.Snapshot().Output)
	}
}

func TestCopyOutput(t *testing.T) {
	h := newHarness(t)
	if err := h.ctrl.CopyOutput(); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	h.ctrl.SetInput("hello")
	if _, err := h.ctrl.TranslateText(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.CopyOutput(); err != nil {
		t.Fatal(err)
	}
	if len(*h.copied) != 1 || (*h.copied)[0] != "[fr] hello" {
		t.Fatalf("copied = %v", *h.copied)
	}
}

func TestRealTimeLoop(t *testing.T) {
	h := newHarness(t)
	h.detector.Code = "en"
	h.listener.results = []listenResult{
		{text: "first"},
		{err: speech.ErrNoSpeech}, // skipped silently
		{text: "second"},
	}

	if err := h.ctrl.StartRealTime(); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.StartRealTime(); !errors.Is(err, ErrRealTimeActive) {
		t.Fatalf("expected ErrRealTimeActive, got %v", err)
	}

	waitFor(t, func() bool { return len(h.rows(t)) == 2 })
	h.ctrl.StopRealTime()
	if h.ctrl.RealTimeActive() {
		t.Fatal("loop should be stopped")
	}

	rows := h.rows(t)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][4] != "first" || rows[1][4] != "second" {
		t.Fatalf("row order wrong: %v / %v", rows[0], rows[1])
	}
	if rows[0][1] != "real-time" {
		t.Fatalf("mode = %q", rows[0][1])
	}

	out := h.ctrl.Snapshot().Output
	want := "You: first\n→ [fr] first\nYou: second\n→ [fr] second\n"
	if out != want {
		t.Fatalf("output buffer = %q, want %q", out, want)
	}
}

func TestRealTimeStopIdempotent(t *testing.T) {
	h := newHarness(t)
	h.ctrl.StopRealTime() // nothing running

	if err := h.ctrl.StartRealTime(); err != nil {
		t.Fatal(err)
	}
	h.ctrl.StopRealTime()
	h.ctrl.StopRealTime()

	// the loop can be started again after a stop
	if err := h.ctrl.StartRealTime(); err != nil {
		t.Fatal(err)
	}
	h.ctrl.StopRealTime()
}

func TestRealTimeTranslateFailureSkipsIteration(t *testing.T) {
	h := newHarness(t)
	h.translator.Err = errors.New("down")
	h.listener.results = []listenResult{{text: "oops"}}

	if err := h.ctrl.StartRealTime(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(h.translator.Calls()) == 1 })
	h.ctrl.StopRealTime()

	if got := h.rows(t); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if h.ctrl.Snapshot().Output != "" {
		t.Fatal("output buffer should be untouched")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
