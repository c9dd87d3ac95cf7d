package tasks

import (
	"context"
	"testing"

	"github.com/Slowper/emmawebsitempa-sub001/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopTask struct{ name string }

func (t noopTask) Identifier() string { return t.name }
func (t noopTask) Run(context.Context, map[string]any) error { return nil }

type recordingScheduler struct {
	added []string
}

func (s *recordingScheduler) AddJob(cronExpr, taskName, uniqueJobName string, _ map[string]any, source string) error {
	s.added = append(s.added, uniqueJobName+"|"+cronExpr+"|"+source)
	return nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b:manual", func() core.Task { return noopTask{"b:manual"} })
	reg.RegisterAuto("a:auto", "@every 1m", func() core.Task { return noopTask{"a:auto"} }, nil)

	assert.Equal(t, []string{"a:auto", "b:manual"}, reg.Names())

	task, err := reg.GetTask("b:manual")
	require.NoError(t, err)
	assert.Equal(t, "b:manual", task.Identifier())

	_, err = reg.GetTask("missing")
	assert.Error(t, err)

	sched := &recordingScheduler{}
	reg.ApplyAutoJobs(sched)
	assert.Equal(t, []string{"a:auto|@every 1m|SYSTEM"}, sched.added)
}
