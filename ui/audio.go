package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// AudioSource is the pull side of the emulator core's audio ring.
// ReadAudio fills out with mono samples and never blocks; on underrun
// it repeats the last sample.
type AudioSource interface {
	ReadAudio(out []float32) int
}

// AudioPlayer binds an AudioSource to the host audio device. Oto's
// player goroutine pulls samples through the io.Reader adapter below;
// no pacing state is shared with the emulation goroutine.
type AudioPlayer struct {
	player *oto.Player
}

// oto context singleton
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
	otoRate     int
)

// ensureOtoContext initializes the oto audio context on first use.
func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoRate = sampleRate
		<-readyChan
	})
	if otoInitErr == nil && otoRate != sampleRate {
		return nil, fmt.Errorf("audio context already opened at %d Hz", otoRate)
	}
	return otoCtx, otoInitErr
}

// NewAudioPlayer opens the audio device at sampleRate and starts
// pulling from src.
func NewAudioPlayer(src AudioSource, sampleRate int, volume float64) (*AudioPlayer, error) {
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	player := ctx.NewPlayer(&sourceReader{src: src})
	player.SetVolume(volume)
	player.Play()

	return &AudioPlayer{player: player}, nil
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Close stops playback and releases the device player.
func (a *AudioPlayer) Close() {
	if a.player != nil {
		a.player.Close()
		a.player = nil
	}
}

// sourceReader adapts an AudioSource to the io.Reader oto consumes,
// converting mono float32 samples to little-endian int16.
type sourceReader struct {
	src     AudioSource
	scratch []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	samples := len(p) / 2
	if samples == 0 {
		return 0, nil
	}
	if cap(r.scratch) < samples {
		r.scratch = make([]float32, samples)
	}
	buf := r.scratch[:samples]
	n := r.src.ReadAudio(buf)

	for i := 0; i < n; i++ {
		v := buf[i]
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		p[i*2] = byte(s)
		p[i*2+1] = byte(s >> 8)
	}
	return n * 2, nil
}
