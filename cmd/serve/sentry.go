package serve

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/memobread/memobread/internal/buildinfo"
	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/privacy"
)

const sentryFlushTimeout = 2 * time.Second

// initSentry configures error reporting. It is a no-op when Sentry is disabled.
func initSentry(settings *conf.Settings) error {
	if !settings.Sentry.Enabled {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		Debug:            false,
		AttachStacktrace: false,
		Environment:      settings.Sentry.Environment,
		ServerName:       "", // keep the hostname out of events
		Release:          buildinfo.Default().Release(),
		BeforeSend:       applyPrivacyFilters,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	return nil
}

// applyPrivacyFilters drops user, host and runtime details from an event.
func applyPrivacyFilters(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	// recording payloads never leave the process
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
	}
	return event
}

func flushSentry(settings *conf.Settings) {
	if settings.Sentry.Enabled {
		sentry.Flush(sentryFlushTimeout)
	}
}
