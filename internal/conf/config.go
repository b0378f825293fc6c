// config.go: settings struct for MemoBread and the functions to load and save it.
package conf

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/memobread/memobread/internal/logger"
)

//go:embed config.yaml
var defaultConfigYAML []byte

// MainSettings contains general application settings.
type MainSettings struct {
	Name string // instance name, used as MQTT client id suffix and in logs
}

// RateLimitSettings contains request rate limiting for the HTTP API.
type RateLimitSettings struct {
	Enabled bool    // true to enable per-IP rate limiting
	Rate    float64 // sustained requests per second per client
	Burst   int     // burst size
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Host           string            // listen address, empty for all interfaces
	Port           string            // listen port
	BodyLimit      string            // max request body, echo notation e.g. "10M"
	AllowedOrigins []string          // CORS origins, ["*"] allows everything
	ReadTimeout    time.Duration     // http.Server read timeout
	WriteTimeout   time.Duration     // http.Server write timeout
	IdleTimeout    time.Duration     // http.Server idle timeout
	RateLimit      RateLimitSettings // request rate limiting
}

// TranscriptionSettings contains settings for the speech-to-text provider.
type TranscriptionSettings struct {
	Provider     string        // "stub" is the only built-in provider
	Language     string        // default BCP 47 language tag, e.g. "zh-CN"
	PrefixLength int           // number of base64 characters the stub decodes
	StrictDecode bool          // true to reject undecodable audio instead of returning the fallback text
	Timeout      time.Duration // per-call deadline, 0 disables
}

// LocationCacheSettings configures memoisation of resolver results.
type LocationCacheSettings struct {
	Enabled bool          // true to cache resolved cities
	TTL     time.Duration // entry lifetime, keyed by exact coordinates
}

// LocationSettings contains settings for coordinate to city resolution.
type LocationSettings struct {
	Threshold float64               // maximum distance in km for a city match
	Cache     LocationCacheSettings // resolver cache
}

// StorageSettings selects the recording store.
type StorageSettings struct {
	Backend string // "memory" or "sqlite" (in-memory database, not persisted)
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to serve /metrics
	Listen  string // IP address and port to listen on
}

// SentrySettings contains settings for error reporting.
type SentrySettings struct {
	Enabled     bool   // true to report server-side errors to Sentry
	DSN         string // Sentry project DSN
	Environment string // environment tag, e.g. "production"
}

// MQTTSettings contains settings for recording lifecycle events.
type MQTTSettings struct {
	Enabled  bool   // true to publish events
	Broker   string // MQTT broker (tcp://host:port)
	Topic    string // topic prefix, events go to <topic>/created and <topic>/deleted
	ClientID string // client id, defaults to main.name
	Username string // MQTT username
	Password string // MQTT password
}

// Settings contains all configuration options for MemoBread.
type Settings struct {
	Debug bool // true to enable debug logging everywhere

	Main          MainSettings
	WebServer     WebServerSettings
	Logging       logger.LoggingConfig
	Transcription TranscriptionSettings
	Location      LocationSettings
	Storage       StorageSettings
	Telemetry     TelemetrySettings
	Sentry        SentrySettings
	MQTT          MQTTSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	configFileUsed   string
)

// Load reads the configuration file and environment variables into a new Settings.
// An empty configFile searches the default config paths; a missing file is not an error.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
	}
	if settings.MQTT.ClientID == "" {
		settings.MQTT.ClientID = settings.Main.Name
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	configFileUsed = v.ConfigFileUsed()
	settingsMutex.Unlock()

	return settings, nil
}

// GetSettings returns the settings from the last successful Load, or nil
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ConfigFileUsed returns the path of the file read by the last Load, or "" when defaults were used
func ConfigFileUsed() string {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return configFileUsed
}

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "memobread"))
	}
	return append(paths, "/etc/memobread")
}

// DumpYAML renders settings as YAML. Secrets are masked unless revealSecrets is set.
func DumpYAML(settings *Settings, revealSecrets bool) ([]byte, error) {
	out := *settings
	if !revealSecrets {
		if out.MQTT.Password != "" {
			out.MQTT.Password = maskedSecret
		}
		if out.Sentry.DSN != "" {
			out.Sentry.DSN = maskedSecret
		}
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return data, nil
}

const maskedSecret = "********"

// SaveYAMLConfig writes settings to configPath atomically through a temp file and rename.
// Comments and ordering of an existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := DumpYAML(settings, true)
	if err != nil {
		return err
	}
	return writeFileAtomic(configPath, yamlData)
}

// WriteDefaultConfig writes the bundled commented config.yaml to configPath.
// It refuses to overwrite an existing file.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}
	return writeFileAtomic(configPath, defaultConfigYAML)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName) //nolint:errcheck // already renamed on success

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, path); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
