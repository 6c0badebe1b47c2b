package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"lingo/audio"
	"lingo/encoder"
)

// Capture binds a microphone device to a recognition provider. One Listen
// call records one utterance. The microphone is a single shared resource,
// so Listen calls from different workflows are serialized here.
type Capture struct {
	device audio.CaptureDevice
	rec    Recognizer

	mu   sync.Mutex // serializes microphone access
	lang string

	newDetector func() (voiceDetector, error)
	levelFn     func(rms float64)
}

func NewCapture(device audio.CaptureDevice, rec Recognizer) *Capture {
	return &Capture{
		device:      device,
		rec:         rec,
		lang:        "en-US",
		newDetector: func() (voiceDetector, error) { return newVADProcessor() },
	}
}

// SetLanguage sets the recognition language hint (BCP 47 or ISO 639-1).
func (c *Capture) SetLanguage(lang string) {
	c.mu.Lock()
	c.lang = lang
	c.mu.Unlock()
}

func (c *Capture) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// SetLevelFunc installs a callback that receives the RMS level of each
// audio chunk, for UI meters. Must be set before Listen.
func (c *Capture) SetLevelFunc(fn func(rms float64)) {
	c.levelFn = fn
}

func (c *Capture) Provider() string { return c.rec.Name() }

// Listen blocks until one utterance has been captured and recognized.
// maxUtterance bounds the phrase length once voice is heard; 0 means the
// utterance ends only on trailing silence. Returns ErrNoSpeech when the
// microphone stayed silent or recognition produced no text.
func (c *Capture) Listen(ctx context.Context, maxUtterance time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	detector, err := c.newDetector()
	if err != nil {
		return "", fmt.Errorf("VAD init: %w", err)
	}

	var bufMu sync.Mutex
	var samples []int16

	c.device.SetCallback(func(data []byte, _ uint32) {
		if len(data) < 2 {
			return
		}
		bufMu.Lock()
		for i := 0; i+1 < len(data); i += 2 {
			samples = append(samples, int16(binary.LittleEndian.Uint16(data[i:])))
		}
		bufMu.Unlock()

		detector.Process(data)

		if c.levelFn != nil {
			var sumSquares float64
			for i := 0; i+1 < len(data); i += 2 {
				sample := int16(binary.LittleEndian.Uint16(data[i:]))
				normalized := float64(sample) / 32768.0
				sumSquares += normalized * normalized
			}
			c.levelFn(math.Sqrt(sumSquares / float64(len(data)/2)))
		}
	})

	if err := c.device.Start(); err != nil {
		c.device.ClearCallback()
		return "", fmt.Errorf("starting capture: %w", err)
	}

	mon := newUtteranceMonitor(time.Now(), maxUtterance)
	outcome := utteranceNone
	ticker := time.NewTicker(tickInterval)
	var ctxErr error

wait:
	for {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break wait
		case now := <-ticker.C:
			switch mon.Tick(now, detector.VoiceDetected(), detector.LastVoiceTime()) {
			case utteranceComplete:
				outcome = utteranceComplete
				break wait
			case utteranceNoSpeech:
				outcome = utteranceNoSpeech
				break wait
			}
		}
	}
	ticker.Stop()

	c.device.Stop()
	c.device.ClearCallback()

	if ctxErr != nil {
		return "", ctxErr
	}
	if outcome == utteranceNoSpeech {
		return "", ErrNoSpeech
	}

	bufMu.Lock()
	pcm := samples
	samples = nil
	bufMu.Unlock()

	flacData, err := encodeFlac(pcm)
	if err != nil {
		return "", err
	}

	text, err := c.rec.Recognize(ctx, flacData, c.lang)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

func encodeFlac(samples []int16) ([]byte, error) {
	enc, err := encoder.NewFlac()
	if err != nil {
		return nil, err
	}
	for len(samples) > 0 {
		n := min(len(samples), encoder.BlockSize)
		if err := enc.EncodeBlock(samples[:n]); err != nil {
			return nil, err
		}
		samples = samples[n:]
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
