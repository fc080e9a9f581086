// Package historian drains the room action queue into durable storage.
// It runs as its own process next to the server.
package historian

import (
	"context"
	"time"

	"github.com/jason-s-yu/partydeck/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued records. ok is false when nothing arrived within
// timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (rec cache.RoomActionRecord, ok bool, err error)
}

// Sink persists a batch of records.
type Sink interface {
	WriteActions(ctx context.Context, recs []cache.RoomActionRecord) error
}

// Options tunes batching.
type Options struct {
	BatchSize   int
	FlushDelay  time.Duration
	PollTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.FlushDelay <= 0 {
		o.FlushDelay = 500 * time.Millisecond
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 3 * time.Second
	}
	return o
}

// Service accumulates records and flushes them when the batch fills up or
// FlushDelay passes, whichever is first.
type Service struct {
	src    Source
	sink   Sink
	opts   Options
	logger *logrus.Logger

	batch     []cache.RoomActionRecord
	lastFlush time.Time
	now       func() time.Time
}

// New builds a Service.
func New(src Source, sink Sink, logger *logrus.Logger, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		src:    src,
		sink:   sink,
		opts:   opts,
		logger: logger,
		batch:  make([]cache.RoomActionRecord, 0, opts.BatchSize),
		now:    time.Now,
	}
}

// Run consumes until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	s.lastFlush = s.now()
	for {
		if ctx.Err() != nil {
			// The final flush must outlive the cancelled context.
			s.flush(context.WithoutCancel(ctx))
			s.logger.Info("historian stopped")
			return nil
		}
		timeout := s.opts.PollTimeout
		if len(s.batch) > 0 {
			if remaining := s.opts.FlushDelay - s.now().Sub(s.lastFlush); remaining < timeout {
				timeout = max(remaining, time.Millisecond)
			}
		}
		rec, ok, err := s.src.Pop(ctx, timeout)
		switch {
		case err != nil && ctx.Err() == nil:
			s.logger.Warnf("historian: %v", err)
		case ok:
			s.batch = append(s.batch, rec)
		}
		if len(s.batch) >= s.opts.BatchSize || s.now().Sub(s.lastFlush) >= s.opts.FlushDelay {
			s.flush(ctx)
		}
	}
}

// flush writes the pending batch. A failed batch is dropped and logged, so
// a bad row cannot wedge the queue.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.now()
	if len(s.batch) == 0 {
		return
	}
	n := len(s.batch)
	if err := s.sink.WriteActions(ctx, s.batch); err != nil {
		s.logger.WithError(err).Errorf("historian: dropped %d actions", n)
	} else {
		s.logger.Debugf("historian: flushed %d actions", n)
	}
	s.batch = make([]cache.RoomActionRecord, 0, s.opts.BatchSize)
}
