// Package background runs the server's housekeeping loops and stops them
// together on shutdown.
package background

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrShutdownTimeout = errors.New("background tasks did not stop in time")

type Background struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Background {
	ctx, cancel := context.WithCancel(context.Background())
	return &Background{ctx: ctx, cancel: cancel, log: log}
}

// Go runs fn until it returns or Shutdown is called. A panic in fn is logged
// and does not take the server down.
func (b *Background) Go(name string, fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{"task": name, "panic": rec}).Error("background task panicked")
			}
		}()

		b.log.WithField("task", name).Debug("background task started")
		fn(b.ctx)
	}()
}

func (b *Background) Shutdown(ctx context.Context) error {
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}
