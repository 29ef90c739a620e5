package fithub

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fithub",
		Name:      "activity_fetches_total",
		Help:      "Activity fetches by outcome",
	}, []string{"outcome"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fithub",
		Name:      "activity_cache_hits_total",
		Help:      "Activity years served from the cache",
	})

	superseded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fithub",
		Name:      "superseded_selections_total",
		Help:      "Fetch results discarded because a newer year was selected",
	})
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	}
	var fault *Fault
	if errors.As(err, &fault) {
		return "fault"
	}
	return "error"
}
