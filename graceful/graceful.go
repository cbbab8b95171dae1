package graceful

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Shutdownable can be closed gracefully.
type Shutdownable interface {
	Shutdown(context.Context) error
}

type target struct {
	name    string
	shut    Shutdownable
	timeout time.Duration
}

// Closer shuts down registered targets when the process is asked to
// stop. Targets registered after shutdown has begun are ignored.
type Closer struct {
	targets      []target
	targetsMutex sync.Mutex

	done     chan struct{}
	doneBool int32
}

// Register adds a target to shut down gracefully.
func (cc *Closer) Register(name string, shut Shutdownable, timeout time.Duration) {
	if atomic.LoadInt32(&cc.doneBool) != 0 {
		return
	}

	cc.targetsMutex.Lock()
	cc.targets = append(cc.targets, target{
		name:    name,
		shut:    shut,
		timeout: timeout,
	})
	cc.targetsMutex.Unlock()
}

// DetectShutdown starts watching for termination signals. The returned
// function triggers the same shutdown path programmatically.
func DetectShutdown(log logrus.FieldLogger) (*Closer, func()) {
	cc := &Closer{done: make(chan struct{})}

	go func() {
		waitForShutdown(log, cc.done)

		if atomic.SwapInt32(&cc.doneBool, 1) != 1 {
			cc.targetsMutex.Lock()
			targets := cc.targets
			cc.targetsMutex.Unlock()

			log.Debugf("Initiating shutdown of %d targets", len(targets))
			wg := sync.WaitGroup{}
			for _, targ := range targets {
				wg.Add(1)
				go func(targ target) {
					defer wg.Done()
					slog := log.WithField("target", targ.name)
					ctx, cancel := context.WithTimeout(context.Background(), targ.timeout)
					defer cancel()
					slog.Debug("Triggering shutdown")
					if err := targ.shut.Shutdown(ctx); err != nil {
						slog.WithError(err).Error("Graceful shutdown failed")
					}
					slog.Debug("Shutdown finished")
				}(targ)
			}
			log.Debug("Waiting for targets to finish shutdown")
			wg.Wait()
			os.Exit(0)
		}
	}()

	var once sync.Once
	return cc, func() {
		once.Do(func() { close(cc.done) })
	}
}

func waitForShutdown(log logrus.FieldLogger, done <-chan struct{}) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-signals:
		log.Infof("Triggering shutdown from signal %s", sig)
	case <-done:
		log.Info("Shutting down...")
	}
}
