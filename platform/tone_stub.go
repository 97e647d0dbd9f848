//go:build !cgo

package platform

import "errors"

// PortAudioTone is a stub for builds without CGO.
type PortAudioTone struct{}

// NewPortAudioTone always fails, audio needs CGO.
func NewPortAudioTone() (*PortAudioTone, error) {
	return nil, errors.New("audio support is disabled in this build (requires CGO)")
}

func (t *PortAudioTone) PlayTone(frequency float64) {}

func (t *PortAudioTone) Stop() {}

func (t *PortAudioTone) Close() {}
