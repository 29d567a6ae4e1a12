// Package tasks queues callbacks under named application phases and runs
// them later, in registration order, once per phase.
package tasks

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Type names an application phase.
type Type string

// Application phases, in the order the kernel dispatches them.
const (
	PreStart     Type = "preStart"
	PostStart    Type = "postStart"
	PreShutdown  Type = "preShutdown"
	PostShutdown Type = "postShutdown"
)

// Task is a callback registered under a phase.
type Task func() error

// Dispatcher holds the registered tasks for every phase.
type Dispatcher struct {
	mu     sync.Mutex
	tasks  map[Type][]Task
	logger *zap.Logger
}

// NewDispatcher creates an empty task dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		tasks:  make(map[Type][]Task),
		logger: logger,
	}
}

// RegisterTask schedules task to run when phase is dispatched.
func (d *Dispatcher) RegisterTask(phase Type, task Task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks[phase] = append(d.tasks[phase], task)
}

// Pending returns how many tasks are waiting for phase.
func (d *Dispatcher) Pending(phase Type) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tasks[phase])
}

// Dispatch runs the tasks registered for phase. Each task runs at most once:
// the queue is drained before running, and tasks registered by a running
// task are picked up in the same call. Every task runs even if an earlier
// one fails; the failures are returned combined.
func (d *Dispatcher) Dispatch(phase Type) error {
	var errs error
	ran := 0
	for {
		batch := d.take(phase)
		if len(batch) == 0 {
			break
		}
		for _, task := range batch {
			if err := task(); err != nil {
				errs = multierr.Append(errs, err)
			}
			ran++
		}
	}

	if errs != nil {
		d.logger.Warn("task phase finished with errors",
			zap.String("phase", string(phase)),
			zap.Int("tasks", ran),
			zap.Error(errs))
		return errs
	}
	d.logger.Debug("task phase finished",
		zap.String("phase", string(phase)),
		zap.Int("tasks", ran))
	return nil
}

func (d *Dispatcher) take(phase Type) []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.tasks[phase]
	delete(d.tasks, phase)
	return batch
}
