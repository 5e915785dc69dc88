package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RegisterAndRunNow(t *testing.T) {
	s, err := New(zerolog.Nop())
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "count",
		Name: "Count",
		Cron: "0 0 * * *",
		Func: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	require.NoError(t, s.RunNow("count"))
	assert.Equal(t, int32(1), runs.Load())

	tasks := s.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "count", tasks[0].ID)
	assert.NotNil(t, tasks[0].LastRun)
	assert.False(t, tasks[0].Running)

	require.NoError(t, s.Stop())
}

func TestScheduler_Errors(t *testing.T) {
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	defer s.Stop()

	task := TaskConfig{ID: "x", Cron: "0 0 * * *", Func: func(context.Context) error { return errors.New("fail") }}
	require.NoError(t, s.RegisterTask(task))
	assert.Error(t, s.RegisterTask(task), "duplicate id")
	assert.Error(t, s.RegisterTask(TaskConfig{ID: "nofunc", Cron: "0 0 * * *"}))
	err = s.RegisterTask(TaskConfig{ID: "badcron", Name: "Bad Cron", Cron: "not a cron", Func: task.Func})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to create job for task "badcron"`)
	assert.NotContains(t, err.Error(), "WithName")
	assert.Error(t, s.RunNow("missing"))

	// A failing task is logged, not returned.
	assert.NoError(t, s.RunNow("x"))
}

func TestScheduler_RunOnStart(t *testing.T) {
	s, err := New(zerolog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "boot",
		Cron:       "0 0 * * *",
		RunOnStart: true,
		Func: func(context.Context) error {
			close(done)
			return nil
		},
	}))

	s.Start()
	<-done
	require.NoError(t, s.Stop())
}

func TestScheduler_EmptyNameFallsBackToID(t *testing.T) {
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	defer s.Stop()

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "unnamed",
		Cron: "0 0 * * *",
		Func: func(context.Context) error { return nil },
	}))

	tasks := s.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "unnamed", tasks[0].Name)
}
