//go:build !linux

package playback

import (
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

func playPCM(pcm []byte, rate int) error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return err
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 2
	config.SampleRate = uint32(rate)

	var pos atomic.Uint32
	done := make(chan struct{})
	var doneClosed atomic.Bool

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			p := pos.Load()
			total := uint32(len(pcm))
			want := frameCount * 4 // stereo, 16-bit
			if p >= total {
				for i := range pOutput {
					pOutput[i] = 0
				}
				if doneClosed.CompareAndSwap(false, true) {
					close(done)
				}
				return
			}
			n := min(want, total-p)
			copy(pOutput[:n], pcm[p:p+n])
			for i := n; i < want; i++ {
				pOutput[i] = 0
			}
			pos.Store(p + n)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		return err
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return err
	}
	<-done
	device.Stop()
	return nil
}
