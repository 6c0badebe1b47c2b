package speech

import "time"

const (
	tickInterval    = 100 * time.Millisecond
	trailingSilence = 900 * time.Millisecond
	noSpeechAfter   = 6 * time.Second
)

type utteranceEvent int

const (
	utteranceNone     utteranceEvent = iota
	utteranceComplete                // trailing silence or phrase limit reached
	utteranceNoSpeech                // nothing said at all
)

// utteranceMonitor decides, tick by tick, when one utterance is over.
// It is pure state-machine logic so it can be tested without audio.
type utteranceMonitor struct {
	started      time.Time
	maxUtterance time.Duration // 0 = unbounded
}

func newUtteranceMonitor(started time.Time, maxUtterance time.Duration) *utteranceMonitor {
	return &utteranceMonitor{started: started, maxUtterance: maxUtterance}
}

func (m *utteranceMonitor) Tick(now time.Time, voiceDetected bool, lastVoice time.Time) utteranceEvent {
	if !voiceDetected {
		if now.Sub(m.started) >= noSpeechAfter {
			return utteranceNoSpeech
		}
		return utteranceNone
	}
	if m.maxUtterance > 0 && now.Sub(m.started) >= m.maxUtterance {
		return utteranceComplete
	}
	if now.Sub(lastVoice) >= trailingSilence {
		return utteranceComplete
	}
	return utteranceNone
}
