package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comparador/internal/compare"
)

func wait(t *testing.T, m *Manager, id string) Job {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := m.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestSubmitSucceeds(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	release := make(chan struct{})
	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		<-release
		return &compare.Report{Dataset: "d"}, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	job, ok := m.Get(id)
	require.True(t, ok)
	assert.Contains(t, []Status{Pending, Running}, job.Status)
	assert.Nil(t, job.Report)
	assert.Nil(t, job.Finished)
	b, err := json.Marshal(job)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "finished")

	close(release)
	job = wait(t, m, id)
	assert.Equal(t, Done, job.Status)
	require.NotNil(t, job.Report)
	assert.Equal(t, "d", job.Report.Dataset)
	require.NotNil(t, job.Finished)
	assert.False(t, job.Finished.Before(job.Created))
}

func TestSubmitFails(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)
	job := wait(t, m, id)
	assert.Equal(t, Failed, job.Status)
	assert.Equal(t, "boom", job.Error)
	assert.Nil(t, job.Report)
}

func TestPanicFailsJob(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	job := wait(t, m, id)
	assert.Equal(t, Failed, job.Status)
	assert.Contains(t, job.Error, "kaboom")
}

func TestUnknownJob(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()

	_, ok := m.Get("nope")
	assert.False(t, ok)
	_, ok = m.Done("nope")
	assert.False(t, ok)
	_, err := m.Wait(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFinishedJobsExpire(t *testing.T) {
	m := NewManager(50*time.Millisecond, nil)
	defer m.Close()

	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		return &compare.Report{}, nil
	})
	require.NoError(t, err)
	wait(t, m, id)
	assert.Eventually(t, func() bool {
		_, ok := m.Get(id)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunningJobsDoNotExpire(t *testing.T) {
	m := NewManager(10*time.Millisecond, nil)
	defer m.Close()

	release := make(chan struct{})
	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		<-release
		return &compare.Report{}, nil
	})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, ok := m.Get(id)
	assert.True(t, ok)
	close(release)
	wait(t, m, id)
}

func TestCloseCancelsJobs(t *testing.T) {
	m := NewManager(time.Hour, nil)
	started := make(chan struct{})
	id, err := m.Submit(func(ctx context.Context) (*compare.Report, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started
	m.Close()

	job, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, Failed, job.Status)
	_, err = m.Submit(func(ctx context.Context) (*compare.Report, error) { return nil, nil })
	assert.Error(t, err)
}

func TestSubmitRacesClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := NewManager(time.Hour, nil)
		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = m.Submit(func(ctx context.Context) (*compare.Report, error) {
					return &compare.Report{}, nil
				})
			}()
		}
		m.Close()
		wg.Wait()
		m.Close()
		_, err := m.Submit(func(ctx context.Context) (*compare.Report, error) { return nil, nil })
		assert.Error(t, err)
	}
}
