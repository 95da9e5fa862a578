package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry wires the error tracker. An empty DSN leaves it disabled; the
// returned closer flushes pending events on shutdown either way.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(3 * time.Second) }, nil
}

// CaptureErr forwards unexpected failures; nil is ignored so call sites can
// pass errors through unconditionally.
func CaptureErr(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
