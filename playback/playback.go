// Package playback plays MP3 audio through the default output device.
// Decoding is done once up front; the platform layer only ever sees raw
// 16-bit stereo PCM.
package playback

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

var disabled bool

// Disable turns playback into a no-op. Used by tests and headless mode.
func Disable() { disabled = true }

// PlayFile decodes an MP3 file and plays it, blocking until the audio
// has drained.
func PlayFile(path string) error {
	if disabled {
		return nil
	}
	pcm, rate, err := decodeFile(path)
	if err != nil {
		return err
	}
	return playPCM(pcm, rate)
}

// decodeFile returns interleaved 16-bit LE stereo PCM and its sample rate.
func decodeFile(path string) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	return pcm, dec.SampleRate(), nil
}
