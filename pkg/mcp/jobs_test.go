package mcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestJob(t *testing.T, jm *JobManager, seed string) Job {
	t.Helper()
	job, created := jm.CreateJob(seed, 3)
	require.True(t, created)
	require.NotEmpty(t, job.ID)
	return job
}

func TestNewJobManager(t *testing.T) {
	jm := NewJobManager()
	require.NotNil(t, jm)
	assert.Empty(t, jm.ListJobs())
}

func TestCreateJob(t *testing.T) {
	t.Run("new job fields correct", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "search:猫")

		assert.Equal(t, "search:猫", job.Seed)
		assert.Equal(t, 3, job.Threads)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.False(t, job.StartedAt.IsZero())
		assert.True(t, job.CompletedAt.IsZero())
		assert.Empty(t, job.ErrorMessage)
	})

	t.Run("duplicate unfinished seed returns same job", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "search:猫")
		job2, created := jm.CreateJob("search:猫", 5)
		assert.False(t, created)
		assert.Equal(t, job1.ID, job2.ID)
	})

	t.Run("new job allowed after completion", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "search:猫")
		jm.Finish(job1.ID, JobStatusCompleted, "done", "")

		job2 := createTestJob(t, jm, "search:猫")
		assert.NotEqual(t, job1.ID, job2.ID)
	})

	t.Run("different seeds independent", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "search:a")
		job2 := createTestJob(t, jm, "search:b")
		assert.NotEqual(t, job1.ID, job2.ID)
	})
}

func TestGetJob(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "https://example.com")

	got, ok := jm.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	_, ok = jm.GetJob("nonexistent-id")
	assert.False(t, ok)
}

func TestJobLifecycle(t *testing.T) {
	t.Run("start then complete", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "s")
		assert.True(t, jm.IsRunning("s"))

		require.True(t, jm.Start(job.ID))
		got, _ := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusRunning, got.Status)
		assert.False(t, jm.Start(job.ID), "already running")

		jm.Finish(job.ID, JobStatusCompleted, "processed 1 targets, uploaded 2 pairs", "")
		got, _ = jm.GetJob(job.ID)
		assert.Equal(t, JobStatusCompleted, got.Status)
		assert.Equal(t, "processed 1 targets, uploaded 2 pairs", got.Message)
		assert.False(t, got.CompletedAt.IsZero())
		assert.False(t, jm.IsRunning("s"))
		assert.Error(t, jm.Context(job.ID).Err(), "context released on finish")
	})

	t.Run("failure keeps error message", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "s")
		jm.Start(job.ID)
		jm.Finish(job.ID, JobStatusFailed, "", "disk full")

		got, _ := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusFailed, got.Status)
		assert.Equal(t, "disk full", got.ErrorMessage)
	})

	t.Run("finish after cancel keeps cancelled", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "s")
		jm.Start(job.ID)
		require.True(t, jm.CancelJob(job.ID))
		jm.Finish(job.ID, JobStatusFailed, "", "context canceled")

		got, _ := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusCancelled, got.Status)
		assert.Empty(t, got.ErrorMessage)
	})

	t.Run("cancelled before start never runs", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "s")
		require.True(t, jm.CancelJob(job.ID))
		assert.False(t, jm.Start(job.ID))
		assert.False(t, jm.CancelJob(job.ID), "already finished")
	})

	t.Run("unknown ids are no-ops", func(t *testing.T) {
		jm := NewJobManager()
		assert.False(t, jm.Start("ghost"))
		jm.Finish("ghost", JobStatusCompleted, "", "")
		jm.UpdateProgress("ghost", "fetch", 1, 2)
		assert.False(t, jm.CancelJob("ghost"))
		assert.NoError(t, jm.Context("ghost").Err())
	})
}

func TestUpdateProgress(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "s")

	jm.UpdateProgress(job.ID, "upload", 4, 20)
	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, "upload", got.Stage)
	assert.Equal(t, 4, got.Done)
	assert.Equal(t, 20, got.Total)
}

func TestCancelJob(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "s")
	ctx := jm.Context(job.ID)

	assert.True(t, jm.CancelJob(job.ID))
	assert.Error(t, ctx.Err())

	got, _ := jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)
	assert.False(t, jm.IsRunning("s"))
}

func TestCancelAll(t *testing.T) {
	jm := NewJobManager()
	a := createTestJob(t, jm, "a")
	b := createTestJob(t, jm, "b")
	done := createTestJob(t, jm, "c")
	jm.Finish(done.ID, JobStatusCompleted, "", "")

	jm.CancelAll()

	for _, id := range []string{a.ID, b.ID} {
		got, _ := jm.GetJob(id)
		assert.Equal(t, JobStatusCancelled, got.Status)
	}
	got, _ := jm.GetJob(done.ID)
	assert.Equal(t, JobStatusCompleted, got.Status)
}

func TestListJobs_NewestFirst(t *testing.T) {
	jm := NewJobManager()
	first := createTestJob(t, jm, "a")
	time.Sleep(2 * time.Millisecond)
	second := createTestJob(t, jm, "b")

	jobs := jm.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}
