// Package metrics exposes Prometheus-format counters for the marketplace.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vm "github.com/VictoriaMetrics/metrics"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

// Outcomes of an exchange transition.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Registry owns one metric set. A disabled registry records nothing.
type Registry struct {
	set     *vm.Set
	enabled bool
}

// New creates a registry.
func New(enabled bool) *Registry {
	return &Registry{set: vm.NewSet(), enabled: enabled}
}

// Enabled reports whether metrics are being recorded.
func (r *Registry) Enabled() bool {
	return r != nil && r.enabled
}

// Transition counts one exchange operation by kind, op and outcome.
func (r *Registry) Transition(kind exchange.Kind, op string, err error) {
	if !r.Enabled() {
		return
	}
	name := fmt.Sprintf(`midas_exchange_transitions_total{kind=%q,op=%q,outcome=%q}`,
		strings.ToLower(string(kind)), op, Outcome(err))
	r.set.GetOrCreateCounter(name).Inc()
}

// Purged counts barters removed by the retention sweep.
func (r *Registry) Purged(n int64) {
	if !r.Enabled() {
		return
	}
	r.set.GetOrCreateCounter(`midas_barters_purged_total`).Add(int(n))
	r.set.GetOrCreateCounter(`midas_purge_runs_total`).Inc()
}

// HTTPRequest records one served request.
func (r *Registry) HTTPRequest(method, route string, status int, took time.Duration) {
	if !r.Enabled() {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.set.GetOrCreateCounter(fmt.Sprintf(`midas_http_requests_total{method=%q,route=%q,code="%d"}`, method, route, status)).Inc()
	r.set.GetOrCreateHistogram(fmt.Sprintf(`midas_http_request_duration_seconds{method=%q,route=%q}`, method, route)).Update(took.Seconds())
}

// Handler serves the registry plus process metrics.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.set.WritePrometheus(w)
		vm.WriteProcessMetrics(w)
	})
}

// Outcome classifies a transition error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, exchange.ErrPrecondition),
		errors.Is(err, exchange.ErrStateConflict),
		errors.Is(err, exchange.ErrUnauthorized),
		errors.Is(err, exchange.ErrNotFound),
		errors.Is(err, exchange.ErrValidation):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
