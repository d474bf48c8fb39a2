// Package errtrack reports unexpected failures to Sentry.
package errtrack

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures the Sentry client.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Tracker is a Sentry reporter. The zero value and a tracker without a DSN are no-ops.
type Tracker struct {
	enabled bool
}

// Init configures the global Sentry hub. An empty DSN returns a disabled tracker.
func Init(opts Options) (*Tracker, error) {
	if opts.DSN == "" {
		return &Tracker{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}
			event.Tags["service"] = "midas-vault"
			return event
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return &Tracker{enabled: true}, nil
}

func (t *Tracker) Enabled() bool {
	return t != nil && t.enabled
}

// CaptureError reports err with tags.
func (t *Tracker) CaptureError(err error, tags map[string]string) {
	if !t.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// CaptureRequestError reports a failure while serving r.
func (t *Tracker) CaptureRequestError(r *http.Request, err error) {
	if !t.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetRequest(r)
		scope.SetTag("route", r.URL.Path)
		scope.SetTag("method", r.Method)
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events.
func (t *Tracker) Flush(timeout time.Duration) {
	if !t.Enabled() {
		return
	}
	sentry.Flush(timeout)
}
