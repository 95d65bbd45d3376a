package sentryutil

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// Init configures the global sentry client. An empty dsn leaves capture
// disabled; every other call in this package is then a no-op.
func Init(dsn, environment, release string, log zerolog.Logger) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			event.User = sentry.User{}
			return event
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("sentry init failed, error tracking disabled")
		return
	}
	if dsn == "" {
		log.Info().Msg("SENTRY_DSN empty, error tracking disabled")
		return
	}
	log.Info().Msg("sentry initialized")
}

func Flush() { sentry.Flush(2 * time.Second) }

func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// RecoverAndCapture is deferred by update workers; it reports a panic and
// swallows it so one bad update cannot stop the bot.
func RecoverAndCapture(log zerolog.Logger, tags map[string]string) {
	r := recover()
	if r == nil {
		return
	}
	ev := log.Error().Interface("panic", r)
	for k, v := range tags {
		ev = ev.Str(k, v)
	}
	ev.Msg("recovered panic while handling update")
	CapturePanic(r, tags)
}

// CapturePanic reports an already recovered panic value.
func CapturePanic(r any, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CurrentHub().Recover(r)
	})
}
