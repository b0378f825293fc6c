// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration. Every key needs a default so
// that MEMOBREAD_* environment variables are picked up by Unmarshal.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "memobread")

	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.port", "8000")
	v.SetDefault("webserver.bodylimit", "10M")
	v.SetDefault("webserver.allowedorigins", []string{"*"})
	v.SetDefault("webserver.readtimeout", 30*time.Second)
	v.SetDefault("webserver.writetimeout", 30*time.Second)
	v.SetDefault("webserver.idletimeout", 60*time.Second)
	v.SetDefault("webserver.ratelimit.enabled", false)
	v.SetDefault("webserver.ratelimit.rate", 10.0)
	v.SetDefault("webserver.ratelimit.burst", 30)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/memobread.log")
	v.SetDefault("logging.file_output.level", "")
	v.SetDefault("logging.module_levels", map[string]string{})

	v.SetDefault("transcription.provider", "stub")
	v.SetDefault("transcription.language", "zh-CN")
	v.SetDefault("transcription.prefixlength", 100)
	v.SetDefault("transcription.strictdecode", false)
	v.SetDefault("transcription.timeout", 30*time.Second)

	v.SetDefault("location.threshold", 50.0)
	v.SetDefault("location.cache.enabled", false)
	v.SetDefault("location.cache.ttl", 10*time.Minute)

	v.SetDefault("storage.backend", "memory")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "0.0.0.0:8090")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "memobread/recordings")
	v.SetDefault("mqtt.clientid", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
}
