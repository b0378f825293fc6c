// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix is prepended to every environment variable, e.g. MEMOBREAD_WEBSERVER_PORT
const EnvPrefix = "MEMOBREAD"

// envBinding holds metadata for an explicitly validated environment variable
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "MEMOBREAD_DEBUG", validateEnvBool},
		{"webserver.port", "MEMOBREAD_WEBSERVER_PORT", validateEnvPort},
		{"transcription.language", "MEMOBREAD_TRANSCRIPTION_LANGUAGE", validateEnvLanguage},
		{"transcription.strictdecode", "MEMOBREAD_TRANSCRIPTION_STRICTDECODE", validateEnvBool},
		{"location.threshold", "MEMOBREAD_LOCATION_THRESHOLD", validateEnvPositiveFloat},
		{"storage.backend", "MEMOBREAD_STORAGE_BACKEND", validateEnvStorageBackend},
		{"mqtt.broker", "MEMOBREAD_MQTT_BROKER", validateEnvBrokerURL},
		{"mqtt.enabled", "MEMOBREAD_MQTT_ENABLED", validateEnvBool},
		{"sentry.enabled", "MEMOBREAD_SENTRY_ENABLED", validateEnvBool},
		{"telemetry.enabled", "MEMOBREAD_TELEMETRY_ENABLED", validateEnvBool},
	}
}

// configureEnvironmentVariables enables MEMOBREAD_* overrides for every key
// and validates the variables most likely to be set by hand
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var problems []string
	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" && binding.Validate != nil {
			if err := binding.Validate(envValue); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("must be a port number between 0 and 65535")
	}
	return nil
}

func validateEnvLanguage(value string) error {
	if _, err := language.Parse(value); err != nil {
		return fmt.Errorf("must be a BCP 47 language tag: %w", err)
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateEnvStorageBackend(value string) error {
	return validateStorageBackend(value)
}

func validateEnvBrokerURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be a URL such as tcp://host:1883")
	}
	return nil
}
