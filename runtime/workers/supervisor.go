package workers

import (
	"app-chat/contract"
	"app-chat/domain/event"
	"app-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultRestartDelay = 200 * time.Millisecond

// Supervisor runs workers in their own goroutines, recovers their panics and
// restarts them. A worker returning nil is finished and never restarted; a
// worker returning an error is restarted after the restart delay until the
// context is canceled.
type Supervisor struct {
	Cancel       context.CancelFunc
	wg           *sync.WaitGroup
	log          *slog.Logger
	handler      event.Handler
	restartDelay time.Duration
	workers      []contract.Worker
}

// NewSupervisor builds a supervisor. handler receives a
// WorkerRestartedAfterPanic event for every recovered panic and may be nil.
func NewSupervisor(log *slog.Logger, handler event.Handler, restartDelay time.Duration) *Supervisor {
	if restartDelay <= 0 {
		restartDelay = defaultRestartDelay
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, handler: handler, restartDelay: restartDelay}
}

// Run starts every added worker under a context canceled by Stop, and
// blocks until they have all returned.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a single worker under supervision without blocking.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Debug(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("Worker panicked", "name", workerName, "panic", r)
						s.notify(workerName)
						err = errors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Debug(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}

			if ctx.Err() != nil {
				s.log.Debug("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartDelay):
			}
		}
	}()
}

// Stop cancels the context given to the workers started by Run.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

// Wait blocks until every started worker has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) notify(workerName string) {
	if s.handler == nil {
		return
	}
	s.handler.Handle(event.New(event.RestartedAfterPanicType, event.WorkerRestartedAfterPanic{WorkerName: workerName}))
}
