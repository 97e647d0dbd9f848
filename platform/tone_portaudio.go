//go:build cgo

package platform

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioTone plays the buzzer tone on the host sound device.
type PortAudioTone struct {
	mu        sync.Mutex
	stream    *portaudio.Stream
	frequency float64
	phase     float64
}

// NewPortAudioTone initializes portaudio and starts a silent output stream.
func NewPortAudioTone() (*PortAudioTone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	slog.Info("PortAudioTone: PortAudio initialized.")

	t := &PortAudioTone{}
	stream, err := portaudio.OpenDefaultStream(0, 1, toneSampleRate, 0, t.fill)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	t.stream = stream
	return t, nil
}

func (t *PortAudioTone) fill(out []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = fillSquareWave(out, t.frequency, t.phase)
}

func (t *PortAudioTone) PlayTone(frequency float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frequency = frequency
}

func (t *PortAudioTone) Stop() {
	t.PlayTone(0)
}

func (t *PortAudioTone) Close() {
	if t.stream == nil {
		return
	}
	if err := t.stream.Stop(); err != nil {
		slog.Error("PortAudioTone: failed to stop stream", "error", err)
	}
	if err := t.stream.Close(); err != nil {
		slog.Error("PortAudioTone: failed to close stream", "error", err)
	}
	t.stream = nil
	if err := portaudio.Terminate(); err != nil {
		slog.Error("PortAudioTone: failed to terminate portaudio", "error", err)
	} else {
		slog.Info("PortAudioTone: PortAudio terminated.")
	}
}
