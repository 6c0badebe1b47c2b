package speech

import (
	"testing"
	"time"
)

func TestUtteranceMonitorNoSpeech(t *testing.T) {
	start := time.Now()
	mon := newUtteranceMonitor(start, 0)

	if ev := mon.Tick(start.Add(time.Second), false, time.Time{}); ev != utteranceNone {
		t.Fatalf("expected none at 1s, got %v", ev)
	}
	if ev := mon.Tick(start.Add(noSpeechAfter), false, time.Time{}); ev != utteranceNoSpeech {
		t.Fatalf("expected no-speech at limit, got %v", ev)
	}
}

func TestUtteranceMonitorTrailingSilence(t *testing.T) {
	start := time.Now()
	mon := newUtteranceMonitor(start, 0)

	lastVoice := start.Add(500 * time.Millisecond)
	if ev := mon.Tick(lastVoice.Add(100*time.Millisecond), true, lastVoice); ev != utteranceNone {
		t.Fatalf("expected none while voice recent, got %v", ev)
	}
	if ev := mon.Tick(lastVoice.Add(trailingSilence), true, lastVoice); ev != utteranceComplete {
		t.Fatalf("expected complete after trailing silence, got %v", ev)
	}
}

func TestUtteranceMonitorPhraseLimit(t *testing.T) {
	start := time.Now()
	mon := newUtteranceMonitor(start, 2*time.Second)

	// Voice keeps flowing: the phrase limit bounds the utterance anyway.
	now := start.Add(2 * time.Second)
	if ev := mon.Tick(now, true, now); ev != utteranceComplete {
		t.Fatalf("expected complete at phrase limit, got %v", ev)
	}
}

func TestUtteranceMonitorUnboundedIgnoresLimit(t *testing.T) {
	start := time.Now()
	mon := newUtteranceMonitor(start, 0)

	now := start.Add(time.Minute)
	if ev := mon.Tick(now, true, now); ev != utteranceNone {
		t.Fatalf("expected none while voice ongoing, got %v", ev)
	}
}
