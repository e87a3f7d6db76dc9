package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrsp/sticker-alias/internal/trending"
)

type fakeRunner struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRunner) Run(context.Context) (trending.Stats, error) {
	f.calls.Add(1)
	return trending.Stats{RunID: "r1"}, f.err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_NextRunAtConfiguredTime(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	s, err := Start(context.Background(), &fakeRunner{}, Options{Location: loc, Hour: 3, Minute: 15})
	require.NoError(t, err)
	defer s.Stop()

	next, err := s.NextRun()
	require.NoError(t, err)
	next = next.In(loc)
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 15, next.Minute())
	assert.Equal(t, 0, next.Second())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(25*time.Hour)))
}

func TestStart_RunOnStart(t *testing.T) {
	r := &fakeRunner{}
	s, err := Start(context.Background(), r, Options{RunOnStart: true})
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestStart_NoRunOnStartByDefault(t *testing.T) {
	r := &fakeRunner{}
	now := time.Now()
	// schedule for roughly twelve hours away so the job cannot fire during the test
	at := now.Add(12 * time.Hour)
	s, err := Start(context.Background(), r, Options{Hour: uint(at.Hour()), Minute: uint(at.Minute())})
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Zero(t, r.calls.Load())
}

func TestStart_FailedRunIsLogged(t *testing.T) {
	var buf syncBuffer
	lg := zerolog.New(&buf)
	r := &fakeRunner{err: errors.New("database is locked")}

	s, err := Start(context.Background(), r, Options{RunOnStart: true, Logger: &lg})
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "database is locked")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, buf.String(), `"job":"trending"`)
}

func TestStart_SkippedRunIsNotAnError(t *testing.T) {
	var buf syncBuffer
	lg := zerolog.New(&buf)
	r := &fakeRunner{err: trending.ErrRunInProgress}

	s, err := Start(context.Background(), r, Options{RunOnStart: true, Logger: &lg})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "skipped")
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.NotContains(t, buf.String(), "scheduled run failed")
}
