package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"resilicore/internal/telemetry"
)

// Stream is one logical polling loop with its own interval.
type Stream struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Scheduler drives the registered streams on wall-clock tickers. Each
// stream also has a Kick channel so tests can fire ticks without
// waiting. Stop prevents future ticks but never aborts a run already
// in flight.
type Scheduler struct {
	logger  *slog.Logger
	metrics *telemetry.Metrics

	mu      sync.Mutex
	streams []Stream
	kicks   map[string]chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func New(logger *slog.Logger, metrics *telemetry.Metrics) *Scheduler {
	return &Scheduler{
		logger:  logger,
		metrics: metrics,
		kicks:   map[string]chan struct{}{},
	}
}

func (s *Scheduler) Add(stream Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = append(s.streams, stream)
	s.kicks[stream.Name] = make(chan struct{}, 1)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	for _, stream := range s.streams {
		s.wg.Add(1)
		go s.loop(stream, s.kicks[stream.Name], s.stop)
	}
}

// Stop halts future ticks and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}

// Kick triggers one immediate run of the named stream.
func (s *Scheduler) Kick(name string) error {
	s.mu.Lock()
	ch, ok := s.kicks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown stream %q", name)
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) loop(stream Stream, kick chan struct{}, stop chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(stream.Interval)
	defer ticker.Stop()

	s.run(stream)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.run(stream)
		case <-kick:
			s.run(stream)
		}
	}
}

func (s *Scheduler) run(stream Stream) {
	defer func() {
		if r := recover(); r != nil && s.logger != nil {
			s.logger.Error("stream run panicked", "stream", stream.Name, "panic", r)
		}
	}()
	// In-flight work is never cancelled mid-fetch; teardown only stops
	// future ticks.
	stream.Run(context.Background())
	if s.metrics != nil {
		s.metrics.PollCycles.WithLabelValues(stream.Name).Inc()
	}
}
