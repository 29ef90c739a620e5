package fithub_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bzimmer/fithub"
)

type fetcher struct {
	mu       sync.Mutex
	token    string
	years    []int
	calls    int32
	release  chan struct{}
	hold     int // if set only fetches of this year wait for release
	err      error
	workouts []*fithub.Workout
}

func (f *fetcher) Activities(ctx context.Context, token string, year int, now time.Time) ([]*fithub.Workout, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.token = token
	f.years = append(f.years, year)
	f.mu.Unlock()
	if f.release != nil && (f.hold == 0 || f.hold == year) {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.workouts, nil
}

func (f *fetcher) Years() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.years...)
}

func (f *fetcher) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fetcher) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func TestLoaderCache(t *testing.T) {
	a := assert.New(t)
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	f := &fetcher{workouts: []*fithub.Workout{workout(1, "2025-03-04T06:00:00Z", 0.4)}}
	loader := fithub.NewLoader(f, 60)

	for i := 0; i < 3; i++ {
		workouts, err := loader.Load(context.Background(), "my-token", 2025, now)
		a.NoError(err)
		a.Len(workouts, 1)
		a.Equal(int64(1), workouts[0].ID)
		a.Equal(0.4, workouts[0].Intensity)
	}
	a.Equal(1, f.Calls())

	_, err := loader.Load(context.Background(), "other-token", 2025, now)
	a.NoError(err)
	_, err = loader.Load(context.Background(), "my-token", 2024, now)
	a.NoError(err)
	a.Equal(3, f.Calls())

	loader.Invalidate("my-token", 2025, 2024)
	_, err = loader.Load(context.Background(), "my-token", 2025, now)
	a.NoError(err)
	a.Equal(4, f.Calls())
}

func TestLoaderNoCache(t *testing.T) {
	a := assert.New(t)
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	f := &fetcher{}
	loader := fithub.NewLoader(f, 0)
	for i := 0; i < 3; i++ {
		workouts, err := loader.Load(context.Background(), "my-token", 2025, now)
		a.NoError(err)
		a.Empty(workouts)
	}
	a.Equal(3, f.Calls())
	loader.Invalidate("my-token", 2025)
}

func TestLoaderErrorNotCached(t *testing.T) {
	a := assert.New(t)
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	f := &fetcher{err: fithub.ErrUnauthorized}
	loader := fithub.NewLoader(f, 60)
	for i := 0; i < 2; i++ {
		workouts, err := loader.Load(context.Background(), "my-token", 2025, now)
		a.True(errors.Is(err, fithub.ErrUnauthorized))
		a.Nil(workouts)
	}
	a.Equal(2, f.Calls())
}

func TestLoaderSingleFlight(t *testing.T) {
	a := assert.New(t)
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	f := &fetcher{
		release:  make(chan struct{}),
		workouts: []*fithub.Workout{workout(1, "2025-03-04T06:00:00Z", 0.4)},
	}
	loader := fithub.NewLoader(f, 0)

	const n = 5
	var wg sync.WaitGroup
	results := make([][]*fithub.Workout, n)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = loader.Load(context.Background(), "my-token", 2025, now)
	}()
	a.Eventually(func() bool { return f.Calls() == 1 }, time.Second, time.Millisecond)
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = loader.Load(context.Background(), "my-token", 2025, now)
		}(i)
	}
	a.Eventually(func() bool { return loader.Waiting() == n }, time.Second, time.Millisecond)
	close(f.release)
	wg.Wait()

	a.Equal(1, f.Calls())
	for i := range results {
		a.Len(results[i], 1)
	}
}

func TestLoaderCallerCanceled(t *testing.T) {
	a := assert.New(t)
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	f := &fetcher{
		release:  make(chan struct{}),
		workouts: []*fithub.Workout{workout(1, "2025-03-04T06:00:00Z", 0.4)},
	}
	loader := fithub.NewLoader(f, 60)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx, "my-token", 2025, now)
		first <- err
	}()
	a.Eventually(func() bool { return f.Calls() == 1 }, time.Second, time.Millisecond)

	cancel()
	a.True(errors.Is(<-first, context.Canceled))

	var workouts []*fithub.Workout
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		workouts, err = loader.Load(context.Background(), "my-token", 2025, now)
	}()
	a.Eventually(func() bool { return loader.Waiting() == 1 }, time.Second, time.Millisecond)
	close(f.release)
	<-done

	a.NoError(err)
	a.Len(workouts, 1)
	a.Equal(1, f.Calls())

	// the shared fetch completed and was cached
	workouts, err = loader.Load(context.Background(), "my-token", 2025, now)
	a.NoError(err)
	a.Len(workouts, 1)
	a.Equal(1, f.Calls())
}
