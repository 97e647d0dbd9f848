package platform

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarm/serial"
	"lautenbacher.net/gofeeder/config"
)

// SerialLog writes the per-iteration diagnostic line to a serial port, the
// way the original device reports its raw distance.
type SerialLog struct {
	mu     sync.Mutex
	port   io.WriteCloser
	failed bool
}

// OpenSerialLog opens the configured serial device.
func OpenSerialLog(cfg config.SerialConfig) (*SerialLog, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	slog.Info("Serial diagnostic log opened", "device", cfg.Device, "baud", cfg.Baud)
	return newSerialLog(port), nil
}

func newSerialLog(port io.WriteCloser) *SerialLog {
	return &SerialLog{port: port}
}

// LogLine writes text terminated by CR LF. Write errors are logged once and
// the line is dropped.
func (l *SerialLog) LogLine(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return
	}
	if _, err := io.WriteString(l.port, text+"\r\n"); err != nil {
		if !l.failed {
			slog.Error("Writing to serial port failed", "error", err)
		}
		l.failed = true
		return
	}
	l.failed = false
}

func (l *SerialLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}
