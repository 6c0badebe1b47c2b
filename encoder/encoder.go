// Package encoder compresses captured PCM into FLAC for recognition
// uploads. FLAC is lossless, which matters for recognition accuracy, and
// it is an upload format both recognition providers accept directly.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)
