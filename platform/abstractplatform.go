package platform

import (
	"log/slog"
	"sync"
	"sync/atomic"

	c "lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
)

// AbstractPlatform carries what both platforms share: the config, the ready
// signal and the goroutine relaying loop status to a viewer.
type AbstractPlatform struct {
	config         *c.Config
	statusFunc     func(feeder.Status)
	relayWg        sync.WaitGroup
	relayStopChan  chan bool
	relayRunning   bool
	readyChan      chan bool
	readyOnce      sync.Once
	isShuttingDown atomic.Bool
}

func newAbstractPlatform(conf *c.Config, statusFunc func(feeder.Status)) *AbstractPlatform {
	return &AbstractPlatform{
		config:        conf,
		statusFunc:    statusFunc,
		relayStopChan: make(chan bool),
		readyChan:     make(chan bool),
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) setReady() {
	s.readyOnce.Do(func() { close(s.readyChan) })
}

func (s *AbstractPlatform) setInShutdown() {
	s.isShuttingDown.Store(true)
}

// inShutdown may be called from statusFunc; stopStatusRelay waits for a
// running callback to return.
func (s *AbstractPlatform) inShutdown() bool {
	return s.isShuttingDown.Load()
}

// startStatusRelay forwards every status update to statusFunc until
// stopStatusRelay is called. Without a feed or a statusFunc it does nothing.
func (s *AbstractPlatform) startStatusRelay(feed *feeder.StatusFeed) {
	if feed == nil || s.statusFunc == nil {
		return
	}
	s.relayRunning = true
	s.relayWg.Add(1)
	go s.statusRelay(feed)
}

func (s *AbstractPlatform) stopStatusRelay() {
	if !s.relayRunning {
		return
	}
	close(s.relayStopChan)
	s.relayWg.Wait()
	s.relayRunning = false
}

func (s *AbstractPlatform) statusRelay(feed *feeder.StatusFeed) {
	defer s.relayWg.Done()
	for {
		select {
		case <-s.relayStopChan:
			slog.Info("Ending status relay go-routine...")
			return
		case <-feed.Updates():
			st, ok := feed.Latest()
			if !ok {
				continue
			}
			if !s.inShutdown() {
				s.statusFunc(st)
			}
		}
	}
}
