// Package config loads the engine's tunables — environment profile,
// HTTPS proxy, HTTP timeouts, retry/worker counts — through viper, so
// the constants spec.md fixes remain the defaults while tests and
// alternate deployments can override them. The two HTTP timeout
// fields are the exception: they are loaded and validated, but the
// remote client applies its own fixed timeouts.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/logseq/rsapi/errors"
)

// Config holds every engine-wide tunable. Field names mirror the
// environment variables viper binds them to (RSAPI_<FIELD>, upper
// snake case).
type Config struct {
	// Env names the dev/prod control-plane profile. Empty is legal at
	// load time. The engine does not read this field: SetEnv takes the
	// environment as an argument and selects the profile from that.
	Env string `mapstructure:"env"`

	// ProxyURL is an optional HTTPS proxy applied to every request.
	ProxyURL string `mapstructure:"proxy_url"`

	// AllowInsecureTLS disables certificate validation. Defaults to
	// false; spec.md's source accepted invalid certs unconditionally,
	// which §9 flags as a design defect. Opt in explicitly for dev.
	AllowInsecureTLS bool `mapstructure:"allow_insecure_tls"`

	// RequestTimeout is loaded and validated only. The remote client
	// does not read it: every control-plane HTTP call is bounded by
	// the fixed 30s requestTimeout in remote/session.go.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// ConnectTimeout is loaded and validated only. The remote client
	// does not read it: the dial is bounded by the fixed 15s
	// connectTimeout in remote/session.go.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// PushRetries is how many times updateRemoteFiles retries an
	// ExpiredToken failure before giving up (§9 "Retry of push").
	PushRetries int `mapstructure:"push_retries"`

	// FilenameWorkers bounds the goroutine pool used by the batch
	// EncryptFilenames/DecryptFilenames helpers (§5: "the source uses
	// four workers").
	FilenameWorkers int `mapstructure:"filename_workers"`
}

// Default returns the configuration spec.md's constants describe.
func Default() Config {
	return Config{
		RequestTimeout:  30 * time.Second,
		ConnectTimeout:  15 * time.Second,
		PushRetries:     2,
		FilenameWorkers: 4,
	}
}

// Load reads engine configuration from the environment (prefix
// RSAPI_) and any config file viper has been told about, falling back
// to Default for anything unset, then validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("rsapi")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("env", def.Env)
	v.SetDefault("proxy_url", def.ProxyURL)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("connect_timeout", def.ConnectTimeout)
	v.SetDefault("push_retries", def.PushRetries)
	v.SetDefault("filename_workers", def.FilenameWorkers)
	v.SetDefault("allow_insecure_tls", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.KindInvalidArg, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fail-fasts on tunables that would otherwise misbehave
// silently, in the style of the teacher's secret-validation checks.
func (c Config) Validate() error {
	if c.PushRetries < 0 {
		return apperrors.Msg(apperrors.KindInvalidArg, "push_retries must be >= 0, got %d", c.PushRetries)
	}
	if c.FilenameWorkers <= 0 {
		return apperrors.Msg(apperrors.KindInvalidArg, "filename_workers must be > 0, got %d", c.FilenameWorkers)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.Msg(apperrors.KindInvalidArg, "request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return apperrors.Msg(apperrors.KindInvalidArg, "connect_timeout must be positive, got %s", c.ConnectTimeout)
	}
	return nil
}

// String renders the config for diagnostics; ProxyURL is shown, not
// redacted, since it never carries credentials in this scheme.
func (c Config) String() string {
	return fmt.Sprintf("Config{env=%q proxy=%q insecureTLS=%t reqTimeout=%s connTimeout=%s pushRetries=%d fnameWorkers=%d}",
		c.Env, c.ProxyURL, c.AllowInsecureTLS, c.RequestTimeout, c.ConnectTimeout, c.PushRetries, c.FilenameWorkers)
}
