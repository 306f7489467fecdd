package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIngester struct {
	calls atomic.Int32
	err   error
}

func (c *countingIngester) Ingest(_ context.Context, paths []string) (int, int, error) {
	c.calls.Add(1)
	return len(paths), 0, c.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("every tuesday", nil, &countingIngester{}, nil)
	require.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	ing := &countingIngester{}
	s, err := New("@hourly", []string{"data/notes"}, ing, nil)
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.EqualValues(t, 1, ing.calls.Load())

	ing.err = errors.New("disk gone")
	require.Error(t, s.RunOnce(context.Background()))
}

func TestScheduleFires(t *testing.T) {
	ing := &countingIngester{}
	s, err := New("@every 1s", []string{"data/notes"}, ing, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())
	assert.Eventually(t, func() bool { return ing.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
}
