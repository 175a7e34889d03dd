package monitor

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Supervisor owns at most one running monitor.
type Supervisor struct {
	log logrus.FieldLogger

	mu     sync.Mutex
	handle *Handle
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(logger logrus.FieldLogger) *Supervisor {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Supervisor{log: logger.WithField("component", "supervisor")}
}

// Start launches a monitor unless one is already active, in which case it
// logs, leaves the running one untouched and returns it with ErrAlreadyRunning.
func (s *Supervisor) Start(ctx context.Context, opts Options) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil && s.handle.State() != StateStopped {
		s.log.Info("monitor already running")
		return s.handle, ErrAlreadyRunning
	}

	h, err := Start(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.handle = h
	return h, nil
}

// Stop stops the active monitor, if any.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Stop(ctx)
}

// Current returns the active monitor or nil.
func (s *Supervisor) Current() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}
