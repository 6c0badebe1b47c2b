//go:build linux

package playback

import (
	"encoding/binary"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

func playPCM(pcm []byte, rate int) error {
	if len(pcm) < 4 {
		return nil
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	c, err := pulse.NewClient()
	if err != nil {
		return err
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(rate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return err
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
	return nil
}
