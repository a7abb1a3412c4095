package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recorder struct {
	events []string
}

func (r *recorder) dep(name string, needs ...string) Dependency {
	return Dependency{
		Name:  name,
		Needs: needs,
		StartFunc: func(context.Context) error {
			r.events = append(r.events, "start:"+name)
			return nil
		},
		StopFunc: func(context.Context) error {
			r.events = append(r.events, "stop:"+name)
			return nil
		},
	}
}

func TestStartStop_DependencyOrder(t *testing.T) {
	r := &recorder{}
	s := NewStartup(noopLogger(), 1, time.Millisecond)
	s.AddDependency(r.dep("http", "processor"))
	s.AddDependency(r.dep("processor", "database", "redis"))
	s.AddDependency(r.dep("database"))
	s.AddDependency(r.dep("redis"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:redis", "start:processor", "start:http"}, r.events)
	assert.True(t, s.Ready())

	r.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:http", "stop:processor", "stop:redis", "stop:database"}, r.events)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
	assert.False(t, s.Ready())
}

func TestStart_RetriesWithBackoff(t *testing.T) {
	calls := 0
	s := NewStartup(noopLogger(), 3, time.Millisecond)
	s.AddDependency(Dependency{Name: "database", StartFunc: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, StartupStatusStarted, s.Status("database"))
}

func TestStart_GivesUp(t *testing.T) {
	s := NewStartup(noopLogger(), 2, time.Millisecond)
	s.AddDependency(Dependency{Name: "kafka", StartFunc: func(context.Context) error {
		return errors.New("no brokers")
	}})

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.ErrorContains(t, err, "no brokers")
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
	assert.Equal(t, "failed", s.Status("kafka").String())
}

func TestStart_UnknownAndCyclicDependencies(t *testing.T) {
	s := NewStartup(noopLogger(), 1, time.Millisecond)
	s.AddDependency(Dependency{Name: "http", Needs: []string{"missing"}})
	assert.ErrorContains(t, s.Start(context.Background()), "unknown startup dependency 'missing'")

	s = NewStartup(noopLogger(), 1, time.Millisecond)
	s.AddDependency(Dependency{Name: "a", Needs: []string{"b"}})
	s.AddDependency(Dependency{Name: "b", Needs: []string{"a"}})
	assert.ErrorContains(t, s.Start(context.Background()), "cycle")
}

func TestStop_ContinuesAfterFailure(t *testing.T) {
	stopped := false
	s := NewStartup(noopLogger(), 1, time.Millisecond)
	s.AddDependency(Dependency{Name: "database", StopFunc: func(context.Context) error {
		stopped = true
		return nil
	}})
	s.AddDependency(Dependency{Name: "kafka", Needs: []string{"database"}, StopFunc: func(context.Context) error {
		return errors.New("close failed")
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorContains(t, s.Stop(context.Background()), "close failed")
	assert.True(t, stopped)
}
