package fithub

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	cacheSize    = 16 * 1024 * 1024
	fetchTimeout = 2 * time.Minute
)

// Fetcher retrieves the scored workouts of an athlete for a year
type Fetcher interface {
	Activities(ctx context.Context, token string, year int, now time.Time) ([]*Workout, error)
}

// Loader allows one fetch in flight per token and year and caches the results
type Loader struct {
	fetcher Fetcher
	group   singleflight.Group
	cache   *freecache.Cache
	ttl     int
	waiting int32
}

// NewLoader returns a Loader over fetcher; a ttl of zero seconds disables caching
func NewLoader(fetcher Fetcher, ttl int) *Loader {
	l := &Loader{fetcher: fetcher, ttl: ttl}
	if ttl > 0 {
		l.cache = freecache.NewCache(cacheSize)
	}
	return l
}

func key(token string, year int) string {
	return fmt.Sprintf("%x::%d", sha256.Sum256([]byte(token)), year)
}

// Load returns the workouts for token and year
func (l *Loader) Load(ctx context.Context, token string, year int, now time.Time) ([]*Workout, error) {
	k := key(token, year)
	if l.cache != nil {
		if val, err := l.cache.Get([]byte(k)); err == nil {
			var workouts []*Workout
			if err = json.Unmarshal(val, &workouts); err == nil {
				cacheHits.Inc()
				return workouts, nil
			}
			log.Error().Err(err).Int("year", year).Msg("cache")
		}
	}

	// the fetch outlives any one caller; a caller giving up leaves it running
	// for the others sharing the flight
	ch := l.group.DoChan(k, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		workouts, err := l.fetcher.Activities(ctx, token, year, now)
		fetches.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			val, err := json.Marshal(workouts)
			if err == nil {
				err = l.cache.Set([]byte(k), val, l.ttl)
			}
			if err != nil {
				log.Error().Err(err).Int("year", year).Msg("cache")
			}
		}
		return workouts, nil
	})
	atomic.AddInt32(&l.waiting, 1)
	defer atomic.AddInt32(&l.waiting, -1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		log.Debug().Int("year", year).Bool("shared", res.Shared).Msg("load")
		return res.Val.([]*Workout), nil
	}
}

// Waiting returns the number of callers waiting on a fetch
func (l *Loader) Waiting() int {
	return int(atomic.LoadInt32(&l.waiting))
}

// Invalidate drops the cached years of token
func (l *Loader) Invalidate(token string, years ...int) {
	if l.cache == nil {
		return
	}
	for _, year := range years {
		l.cache.Del([]byte(key(token, year)))
	}
}
