// Package metrics exposes the Prometheus collectors of the tracker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "metime_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	HabitCurrentStreak = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metime_habit_current_streak",
			Help: "Current streak of a habit, in periods",
		},
		[]string{"habit", "periodicity"},
	)

	HabitLongestStreak = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metime_habit_longest_streak",
			Help: "Longest streak of a habit, in periods",
		},
		[]string{"habit", "periodicity"},
	)

	HabitBrokenPeriods = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metime_habit_broken_periods",
			Help: "Elapsed periods without a completion",
		},
		[]string{"habit", "periodicity"},
	)

	StreakComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metime_streak_computations_total",
			Help: "Streak engine evaluations",
		},
		[]string{"source", "status"}, // status: success, failed
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder publishes streak results to the package collectors.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordStreak(name string, periodicity domain.Periodicity, result domain.StreakResult) {
	p := periodicity.String()
	HabitCurrentStreak.WithLabelValues(name, p).Set(float64(result.CurrentStreak))
	HabitLongestStreak.WithLabelValues(name, p).Set(float64(result.LongestStreak))
	HabitBrokenPeriods.WithLabelValues(name, p).Set(float64(len(result.BrokenPeriods)))
}

func (r *Recorder) ForgetStreak(name string) {
	labels := prometheus.Labels{"habit": name}
	HabitCurrentStreak.DeletePartialMatch(labels)
	HabitLongestStreak.DeletePartialMatch(labels)
	HabitBrokenPeriods.DeletePartialMatch(labels)
}

func (r *Recorder) RecordComputation(source string, failed bool) {
	status := "success"
	if failed {
		status = "failed"
	}
	StreakComputations.WithLabelValues(source, status).Inc()
}
