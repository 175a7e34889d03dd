package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_SingleMonitor(t *testing.T) {
	f := newFixture()
	f.opts.PollInterval = time.Hour
	sup := NewSupervisor(nil)

	first, err := sup.Start(context.Background(), f.opts)
	require.NoError(t, err)

	again, err := sup.Start(context.Background(), f.opts)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Same(t, first, again)
	assert.Same(t, first, sup.Current())

	require.NoError(t, sup.Stop(context.Background()))
	assert.Nil(t, sup.Current())
	assert.Equal(t, StateStopped, first.State())

	second, err := sup.Start(context.Background(), f.opts)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	require.NoError(t, sup.Stop(context.Background()))
}

func TestSupervisor_StopWithoutMonitor(t *testing.T) {
	assert.NoError(t, NewSupervisor(nil).Stop(context.Background()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
}
