// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/memobread/memobread/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateLoggingSettings(&s.Logging) },
		func(s *Settings) error { return validateTranscriptionSettings(&s.Transcription) },
		func(s *Settings) error { return validateLocationSettings(&s.Location) },
		func(s *Settings) error { return validateStorageBackend(s.Storage.Backend) },
		func(s *Settings) error { return validateTelemetrySettings(&s.Telemetry) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
		func(s *Settings) error { return validateMQTTSettings(&s.MQTT) },
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	port, err := strconv.Atoi(settings.Port)
	// 0 asks the kernel for a free port
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("webserver.port %q must be between 0 and 65535", settings.Port)
	}
	if len(settings.AllowedOrigins) == 0 {
		return fmt.Errorf("webserver.allowedorigins must list at least one origin")
	}
	if settings.RateLimit.Enabled && (settings.RateLimit.Rate <= 0 || settings.RateLimit.Burst < 1) {
		return fmt.Errorf("webserver.ratelimit requires a positive rate and burst")
	}
	return nil
}

func validateLoggingSettings(settings *logger.LoggingConfig) error {
	if settings.DefaultLevel != "" && !logger.IsValidLevel(settings.DefaultLevel) {
		return fmt.Errorf("logging.default_level %q is not a valid level", settings.DefaultLevel)
	}
	for module, level := range settings.ModuleLevels {
		if !logger.IsValidLevel(level) {
			return fmt.Errorf("logging.module_levels.%s %q is not a valid level", module, level)
		}
	}
	return nil
}

func validateTranscriptionSettings(settings *TranscriptionSettings) error {
	if settings.Provider != "stub" {
		return fmt.Errorf("transcription.provider %q is not supported", settings.Provider)
	}
	if _, err := language.Parse(settings.Language); err != nil {
		return fmt.Errorf("transcription.language %q is not a valid language tag", settings.Language)
	}
	// prefixes are decoded in 4-character base64 quanta
	if settings.PrefixLength < 4 {
		return fmt.Errorf("transcription.prefixlength must be at least 4")
	}
	if settings.Timeout < 0 {
		return fmt.Errorf("transcription.timeout must not be negative")
	}
	return nil
}

func validateLocationSettings(settings *LocationSettings) error {
	if settings.Threshold <= 0 {
		return fmt.Errorf("location.threshold must be positive")
	}
	if settings.Cache.Enabled {
		if settings.Cache.TTL <= 0 {
			return fmt.Errorf("location.cache.ttl must be positive when the cache is enabled")
		}
	}
	return nil
}

func validateStorageBackend(backend string) error {
	switch backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("storage.backend %q must be memory or sqlite", backend)
	}
}

func validateTelemetrySettings(settings *TelemetrySettings) error {
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("telemetry.listen %q must be host:port", settings.Listen)
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	return nil
}

func validateMQTTSettings(settings *MQTTSettings) error {
	if !settings.Enabled {
		return nil
	}
	u, err := url.Parse(settings.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("mqtt.broker %q must be a URL such as tcp://host:1883", settings.Broker)
	}
	if settings.Topic == "" {
		return fmt.Errorf("mqtt.topic is required when mqtt is enabled")
	}
	return nil
}
