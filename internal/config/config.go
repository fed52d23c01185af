// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package config loads the process configuration of the controlpanel
// command.
//
// Sources, highest precedence first: command line flags, CONTROLPANEL_*
// environment variables, the YAML file given with --config, defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment variable read by Load, for example
// CONTROLPANEL_GRACE_PERIOD or CONTROLPANEL_LOG_LEVEL.
const EnvPrefix = "CONTROLPANEL"

// Defaults.
const (
	DefaultAddress     = "127.0.0.1:8081"
	DefaultGracePeriod = time.Second
	DefaultLifetime    = 20 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
)

// Config is the configuration of the serve command.
type Config struct {
	// Address is the host:port the server binds. Port 0 picks a free port.
	Address string `mapstructure:"address" validate:"required,listen_address"`

	// GracePeriod bounds how long a stop waits for in-flight requests.
	GracePeriod time.Duration `mapstructure:"grace_period" validate:"gt=0"`

	// Lifetime is how long serve runs before stopping on its own.
	// Zero runs until a signal or a stop request.
	Lifetime time.Duration `mapstructure:"lifetime" validate:"gte=0"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"address":      "address",
	"grace-period": "grace_period",
	"lifetime":     "lifetime",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Address:     DefaultAddress,
		GracePeriod: DefaultGracePeriod,
		Lifetime:    DefaultLifetime,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the configuration. path names an optional YAML file; flags,
// if non-nil, may define any of the flags registered by RegisterFlags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RegisterFlags defines the flags Load understands on fs. Their defaults
// match Default so help output is accurate.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("address", d.Address, "host:port to listen on")
	fs.Duration("grace-period", d.GracePeriod, "how long a stop waits for in-flight requests")
	fs.Duration("lifetime", d.Lifetime, "stop after this long; 0 runs until interrupted")
	fs.String("log-level", d.Log.Level, "one of debug, info, warn, error")
	fs.String("log-format", d.Log.Format, "one of console, json")
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("address", d.Address)
	v.SetDefault("grace_period", d.GracePeriod)
	v.SetDefault("lifetime", d.Lifetime)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks cfg, reporting every invalid field.
func Validate(cfg *Config) error {
	vld, err := newValidator()
	if err != nil {
		return err
	}

	err = vld.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var errs error
	for _, fe := range verrs {
		errs = multierr.Append(errs, fmt.Errorf(
			"invalid %s %q: failed %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errs
}

func newValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())
	if err := vld.RegisterValidation("listen_address", isListenAddress); err != nil {
		return nil, fmt.Errorf("register listen_address: %w", err)
	}
	return vld, nil
}

// isListenAddress accepts host:port with a numeric port in [0, 65535].
// The validator's hostname_port rejects port 0.
func isListenAddress(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	n, err := strconv.ParseUint(port, 10, 16)
	return err == nil && n <= 65535
}
