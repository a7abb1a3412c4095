// Package startup brings service dependencies up in dependency order with retries and
// takes them down in reverse.
package startup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
)

type StartupDependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type StartupStatus int

const (
	StartupStatusPending StartupStatus = iota
	StartupStatusStarted
	StartupStatusStopped
	StartupStatusFailed
)

func (s StartupStatus) String() string {
	switch s {
	case StartupStatusStarted:
		return "started"
	case StartupStatusStopped:
		return "stopped"
	case StartupStatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Dependency adapts a pair of functions to StartupDependency. A nil StopFunc is a no-op.
type Dependency struct {
	Name      string
	Needs     []string
	StartFunc func(ctx context.Context) error
	StopFunc  func(ctx context.Context) error
}

func (d Dependency) GetName() string     { return d.Name }
func (d Dependency) DependsOn() []string { return d.Needs }

func (d Dependency) Start(ctx context.Context) error {
	if d.StartFunc == nil {
		return nil
	}
	return d.StartFunc(ctx)
}

func (d Dependency) Stop(ctx context.Context) error {
	if d.StopFunc == nil {
		return nil
	}
	return d.StopFunc(ctx)
}

type Startup struct {
	mu           sync.RWMutex
	order        []string
	dependencies map[string]StartupDependency
	logger       ectologger.Logger
	statuses     map[string]StartupStatus
	started      []string
	attempt      int
	maxAttempts  int
	backoffUnit  time.Duration
}

// NewStartup creates a Startup that tries at most maxAttempts times, waiting a
// Fibonacci number of backoffUnits between attempts.
func NewStartup(logger ectologger.Logger, maxAttempts int, backoffUnit time.Duration) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoffUnit <= 0 {
		backoffUnit = time.Second
	}
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]StartupDependency),
		statuses:     make(map[string]StartupStatus),
		maxAttempts:  maxAttempts,
		backoffUnit:  backoffUnit,
	}
}

func (s *Startup) AddDependency(dependency StartupDependency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dependencies[dependency.GetName()]; !ok {
		s.order = append(s.order, dependency.GetName())
	}
	s.dependencies[dependency.GetName()] = dependency
}

func (s *Startup) Start(ctx context.Context) error {
	s.attempt = 0
	var lastErr error

	// Fibonacci backoff sequence
	a, b := 1, 1
	for s.attempt < s.maxAttempts {
		s.attempt++
		s.logger.WithField("attempt", s.attempt).Infof("Beginning startup attempt %d", s.attempt)

		success := true
		for _, name := range s.order {
			if err := s.startDependency(ctx, name, nil); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, s.attempt)
				lastErr = err
				success = false
				break
			}
		}

		if success {
			return nil
		}

		if s.attempt >= s.maxAttempts {
			return fmt.Errorf("startup failed after %d attempts: %w", s.attempt, lastErr)
		}

		waitTime := time.Duration(a) * s.backoffUnit
		s.logger.Infof("Retrying in %s (attempt %d/%d)", waitTime, s.attempt, s.maxAttempts)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}

		a, b = b, a+b
	}

	return nil
}

// startDependency starts name after everything it depends on. visiting detects cycles.
func (s *Startup) startDependency(ctx context.Context, name string, visiting map[string]bool) error {
	if s.Status(name) == StartupStatusStarted {
		return nil
	}

	dependency, ok := s.dependencies[name]
	if !ok {
		return fmt.Errorf("unknown startup dependency '%s'", name)
	}
	if visiting == nil {
		visiting = make(map[string]bool)
	}
	if visiting[name] {
		return fmt.Errorf("startup dependency cycle at '%s'", name)
	}
	visiting[name] = true

	for _, dependencyName := range dependency.DependsOn() {
		if err := s.startDependency(ctx, dependencyName, visiting); err != nil {
			return err
		}
	}

	s.logger.WithField("dependency", name).Infof("Starting dependency '%s'", name)
	s.setStatus(name, StartupStatusPending)
	if err := dependency.Start(ctx); err != nil {
		s.setStatus(name, StartupStatusFailed)
		return fmt.Errorf("failed to start '%s': %w", name, err)
	}
	s.setStatus(name, StartupStatusStarted)
	s.mu.Lock()
	s.started = append(s.started, name)
	s.mu.Unlock()
	return nil
}

// Stop stops started dependencies in reverse start order. Every dependency is stopped
// even when one fails; the first error is returned.
func (s *Startup) Stop(ctx context.Context) error {
	s.mu.RLock()
	started := append([]string(nil), s.started...)
	s.mu.RUnlock()

	var firstErr error
	for i := len(started) - 1; i >= 0; i-- {
		name := started[i]
		if s.Status(name) != StartupStatusStarted {
			continue
		}
		if err := s.stopDependency(ctx, s.dependencies[name]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Startup) stopDependency(ctx context.Context, dependency StartupDependency) error {
	s.logger.WithField("dependency", dependency.GetName()).Infof("Stopping dependency '%s'", dependency.GetName())
	if err := dependency.Stop(ctx); err != nil {
		s.logger.WithError(err).WithField("dependency", dependency.GetName()).Errorf("Failed to stop dependency '%s'", dependency.GetName())
		return err
	}

	s.logger.WithField("dependency", dependency.GetName()).Infof("Dependency '%s' stopped", dependency.GetName())
	s.setStatus(dependency.GetName(), StartupStatusStopped)
	return nil
}

// Status returns the current status of a dependency.
func (s *Startup) Status(name string) StartupStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[name]
}

// Statuses returns a snapshot of every dependency's status by name.
func (s *Startup) Statuses() map[string]StartupStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]StartupStatus, len(s.order))
	for _, name := range s.order {
		out[name] = s.statuses[name]
	}
	return out
}

// Ready reports whether every dependency is started.
func (s *Startup) Ready() bool {
	for _, status := range s.Statuses() {
		if status != StartupStatusStarted {
			return false
		}
	}
	return true
}

func (s *Startup) setStatus(name string, status StartupStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name] = status
}
