package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerInvalidSpec(t *testing.T) {
	store, _ := newTestStore(t)
	scheduler := NewScheduler(NewAnalysisJob(store, store, nil, nil, clock), "every twelve hours")
	assert.Error(t, scheduler.Start())
}

func TestSchedulerStartStop(t *testing.T) {
	store, _ := newTestStore(t)
	scheduler := NewScheduler(NewAnalysisJob(store, store, nil, nil, clock), "@every 12h")
	require.NoError(t, scheduler.Start())
	assert.Len(t, scheduler.cron.Entries(), 1)
	scheduler.Stop()
}
