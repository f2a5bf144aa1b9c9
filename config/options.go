// Package config contains the teamdash configuration options and the
// functions that load them from files and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pomerium/teamdash/internal/fileutil"
	"github.com/pomerium/teamdash/internal/urlutil"
)

// ErrInvalidOptions is returned when options fail validation.
var ErrInvalidOptions = errors.New("config: invalid options")

// EnvPrefix is the prefix of every environment variable read by teamdash.
const EnvPrefix = "TEAMDASH"

// Options are the teamdash configuration options.
type Options struct {
	// AuthURLString is the endpoint credentials are posted to.
	AuthURLString string `mapstructure:"auth_url" yaml:"auth_url,omitempty"`
	// APIBaseURLString is the base of the team members resource API.
	APIBaseURLString string `mapstructure:"api_base_url" yaml:"api_base_url,omitempty"`
	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout,omitempty"`
	// DirectoryQPS limits the rate of requests to the team members resource.
	DirectoryQPS float64 `mapstructure:"directory_qps" yaml:"directory_qps,omitempty"`
	// SessionTTL is how long a token stays valid after sign-in.
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl,omitempty"`

	StorageBackend StorageBackend `mapstructure:"storage_backend" yaml:"storage_backend,omitempty"`
	// StoragePath overrides the location of the session storage. Unused by
	// the memory backend.
	StoragePath string `mapstructure:"storage_path" yaml:"storage_path,omitempty"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level,omitempty"`

	// DemoFallback enables signing in with the demo credentials when the
	// auth endpoint cannot be used.
	DemoFallback      bool          `mapstructure:"demo_fallback" yaml:"demo_fallback,omitempty"`
	DemoFallbackDelay time.Duration `mapstructure:"demo_fallback_delay" yaml:"demo_fallback_delay,omitempty"`

	// Addr is the address the web front end listens on.
	Addr string `mapstructure:"address" yaml:"address,omitempty"`
}

var defaultOptions = Options{
	AuthURLString:     "https://reqres.in/api/login",
	APIBaseURLString:  "https://jsonplaceholder.typicode.com",
	HTTPTimeout:       10 * time.Second,
	DirectoryQPS:      10,
	SessionTTL:        time.Hour,
	StorageBackend:    StorageBackendFile,
	LogLevel:          "info",
	DemoFallback:      false,
	DemoFallbackDelay: 1500 * time.Millisecond,
	Addr:              "127.0.0.1:5173",
}

// NewDefaultOptions returns a copy of the default options.
func NewDefaultOptions() *Options {
	o := defaultOptions
	return &o
}

// Load builds the options from the defaults, the optional config file and
// the environment, in increasing order of precedence.
func Load(configFile string) (*Options, error) {
	o, err := optionsFromViper(viper.New(), configFile)
	if err != nil {
		return nil, fmt.Errorf("config: options from config file %q: %w", configFile, err)
	}
	return o, nil
}

func optionsFromViper(v *viper.Viper, configFile string) (*Options, error) {
	o := NewDefaultOptions()
	if err := bindEnvs(v); err != nil {
		return nil, fmt.Errorf("failed to bind options to env vars: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var metadata mapstructure.Metadata
	err := v.Unmarshal(o,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			decodeStorageBackendHookFunc(),
		)),
		func(c *mapstructure.DecoderConfig) { c.Metadata = &metadata },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(metadata.Unused) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidOptions, strings.Join(metadata.Unused, ", "))
	}

	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("validation error %w", err)
	}
	return o, nil
}

// bindEnvs adds a viper environment variable binding for each field in the
// Options struct, based on the mapstructure tag.
func bindEnvs(v *viper.Viper) error {
	t := reflect.TypeOf(Options{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if key == "" || key == "-" {
			continue
		}
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return fmt.Errorf("failed to bind field '%s' to env var: %w", field.Name, err)
		}
	}

	// the resource API base may also come from the unprefixed variable
	if err := v.BindEnv("api_base_url", EnvPrefix+"_API_BASE_URL", "API_BASE_URL"); err != nil {
		return fmt.Errorf("failed to bind field 'APIBaseURLString' to env var 'API_BASE_URL': %w", err)
	}
	return nil
}

// Validate ensures the Options fields are valid.
func (o *Options) Validate() error {
	if _, err := urlutil.ParseAndValidateURL(o.AuthURLString); err != nil {
		return fmt.Errorf("%w: bad auth_url %s: %w", ErrInvalidOptions, o.AuthURLString, err)
	}
	if _, err := urlutil.ParseAndValidateURL(o.APIBaseURLString); err != nil {
		return fmt.Errorf("%w: bad api_base_url %s: %w", ErrInvalidOptions, o.APIBaseURLString, err)
	}
	if o.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http_timeout must be positive, got %s", ErrInvalidOptions, o.HTTPTimeout)
	}
	if o.DirectoryQPS <= 0 {
		return fmt.Errorf("%w: directory_qps must be positive, got %g", ErrInvalidOptions, o.DirectoryQPS)
	}
	if o.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive, got %s", ErrInvalidOptions, o.SessionTTL)
	}
	if o.DemoFallbackDelay < 0 {
		return fmt.Errorf("%w: demo_fallback_delay must not be negative", ErrInvalidOptions)
	}
	if _, err := ParseStorageBackend(string(o.StorageBackend)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if _, err := o.GetLogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if o.Addr == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidOptions)
	}
	return nil
}

// GetAuthURL returns the auth endpoint URL.
func (o *Options) GetAuthURL() (*url.URL, error) {
	return urlutil.ParseAndValidateURL(o.AuthURLString)
}

// GetAPIBaseURL returns the resource API base URL.
func (o *Options) GetAPIBaseURL() (*url.URL, error) {
	return urlutil.ParseAndValidateURL(o.APIBaseURLString)
}

// GetStoragePath returns the configured storage path, or the default file
// for the backend inside the per-user data directory.
func (o *Options) GetStoragePath() string {
	if o.StoragePath != "" {
		return o.StoragePath
	}
	name := o.StorageBackend.defaultFileName()
	if name == "" {
		return ""
	}
	return filepath.Join(fileutil.DataDir(), name)
}

// GetLogLevel returns the parsed log level.
func (o *Options) GetLogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(o.LogLevel))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level: %s", o.LogLevel)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return lvl, nil
}
