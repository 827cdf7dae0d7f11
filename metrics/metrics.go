// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package metrics contains Prometheus collectors for named objects operations.
// Collectors are not registered automatically, use Register.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation results.
const (
	ResultOK      = "ok"
	ResultTimeout = "timeout"
	ResultError   = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "interprocess",
			Name:      "operations_total",
			Help:      "Total number of operations on named objects",
		},
		[]string{"object", "op", "result"},
	)
	waitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "interprocess",
			Name:      "wait_seconds",
			Help:      "Duration of blocking and timed operations on named objects",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"object", "op"},
	)
)

// Collectors returns all collectors of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{operationsTotal, waitSeconds}
}

// Register registers package collectors. Already registered collectors are skipped.
func Register(r prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return errors.Wrap(err, "failed to register collector")
		}
	}
	return nil
}

// Result converts operation's outcome into a result label.
func Result(ok bool, err error) string {
	switch {
	case err != nil:
		return ResultError
	case !ok:
		return ResultTimeout
	default:
		return ResultOK
	}
}

// Observe counts an operation.
func Observe(object, op string, ok bool, err error) {
	operationsTotal.WithLabelValues(object, op, Result(ok, err)).Inc()
}

// ObserveWait counts a blocking or timed operation, which started at start,
// and records its duration.
func ObserveWait(object, op string, start time.Time, ok bool, err error) {
	Observe(object, op, ok, err)
	waitSeconds.WithLabelValues(object, op).Observe(time.Since(start).Seconds())
}
