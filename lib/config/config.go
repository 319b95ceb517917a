// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/eventlog/lib/service"
)

// ErrInvalidValue is returned by Resolve for an invalid property when
// falling back to defaults is disabled.
var ErrInvalidValue = errors.New("invalid configuration value")

// NamingConvention controls how event names are normalized before
// they reach the registry.
type NamingConvention string

const (
	AsIs      NamingConvention = "AS_IS"
	Lowercase NamingConvention = "LOWERCASE"
	Uppercase NamingConvention = "UPPERCASE"
)

// Apply returns name normalized by the convention.
func (c NamingConvention) Apply(name string) string {
	switch c {
	case Lowercase:
		return strings.ToLower(name)
	case Uppercase:
		return strings.ToUpper(name)
	default:
		return name
	}
}

// Config is a fully resolved, validated configuration.
type Config struct {
	UseDefaultOnInvalid  bool
	NamingConvention     NamingConvention
	Port                 int
	RegistryPort         int
	URL                  string
	Retries              int
	RetryDelay           time.Duration
	MainEventDefaultName string
	ClientPolicy         string
	ServerPolicy         string
	ServerBinary         string
	LogDir               string
	LogLevel             slog.Level

	// Fallbacks lists the keys whose configured values were invalid
	// and replaced by defaults.
	Fallbacks []Fallback

	// values holds the canonical string of every key.
	values map[string]string
}

// Fallback records an invalid value replaced by its default.
type Fallback struct {
	Key     string
	Value   string
	Default string
	Reason  string
}

// Value returns the canonical string for a key.
func (c Config) Value(key string) string {
	return c.values[key]
}

// DirectoryAddress is the host:port of the directory.
func (c Config) DirectoryAddress() string {
	return net.JoinHostPort(c.URL, strconv.Itoa(c.RegistryPort))
}

// ListenAddress is the host:port the server's query listener binds.
func (c Config) ListenAddress() string {
	return net.JoinHostPort(c.URL, strconv.Itoa(c.Port))
}

// AsArgs re-serializes every property, the invalid-value policy
// included, as --key=value flags in Keys order. Parsing the result with
// a flag set from RegisterFlags reproduces this configuration.
func (c Config) AsArgs() []string {
	args := make([]string, 0, len(Keys))
	for _, key := range Keys {
		args = append(args, "--"+key.Name+"="+c.values[key.Name])
	}
	return args
}

// YAML renders the configuration as a nested YAML document that
// Loader.ReadFile accepts.
func (c Config) YAML() (string, error) {
	root := make(map[string]any)
	for _, key := range Keys {
		node := root
		segments := strings.Split(key.Name, ".")
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[segment] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = c.values[key.Name]
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("rendering configuration: %w", err)
	}
	return string(data), nil
}

// Loader gathers raw property values from flags, environment, config
// file, and defaults.
type Loader struct {
	viper *viper.Viper
}

// NewLoader returns a loader with every default registered and
// environment lookup enabled.
func NewLoader() *Loader {
	v := viper.New()
	for _, key := range Keys {
		v.SetDefault(key.Name, key.Default)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{viper: v}
}

// RegisterFlags adds one string flag per key to flags and binds it.
// Only flags that are set on the command line override other sources.
func (l *Loader) RegisterFlags(flags *pflag.FlagSet) {
	for _, key := range Keys {
		if flags.Lookup(key.Name) == nil {
			flags.String(key.Name, key.Default, key.Usage())
		}
		// BindPFlag only fails for a nil flag.
		_ = l.viper.BindPFlag(key.Name, flags.Lookup(key.Name))
	}
}

// ReadFile merges a YAML (or any viper-supported) config file.
func (l *Loader) ReadFile(path string) error {
	l.viper.SetConfigFile(path)
	if err := l.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Set overrides a key at the highest precedence. Used by tests and by
// callers embedding the client as a library.
func (l *Loader) Set(key, value string) {
	l.viper.Set(key, value)
}

// Resolve validates every property and returns the configuration.
func (l *Loader) Resolve() (Config, error) {
	config := Config{values: make(map[string]string, len(Keys))}

	// The policy key decides how every other key is treated, so it is
	// resolved first and always falls back to its default.
	policyKey, _ := LookupKey(KeyUseDefaultOnInvalid)
	policy, fallback := l.resolveKey(policyKey)
	if fallback != nil {
		config.Fallbacks = append(config.Fallbacks, *fallback)
	}
	config.values[KeyUseDefaultOnInvalid] = policy
	config.UseDefaultOnInvalid = policy == "true"

	var invalid []error
	for _, key := range Keys {
		if key.Name == KeyUseDefaultOnInvalid {
			continue
		}
		value, fallback := l.resolveKey(key)
		if fallback != nil {
			if !config.UseDefaultOnInvalid {
				invalid = append(invalid, fmt.Errorf("%w: %q for %s: %s", ErrInvalidValue, fallback.Value, key.Name, fallback.Reason))
				continue
			}
			config.Fallbacks = append(config.Fallbacks, *fallback)
		}
		config.values[key.Name] = value
	}
	if len(invalid) > 0 {
		return Config{}, errors.Join(invalid...)
	}

	config.NamingConvention = NamingConvention(config.values[KeyNamingConvention])
	config.Port = config.integer(KeyPort)
	config.RegistryPort = config.integer(KeyRegistryPort)
	config.URL = config.values[KeyURL]
	config.Retries = config.integer(KeyRetries)
	config.RetryDelay = time.Duration(config.integer(KeyRetryDelay)) * time.Second
	config.MainEventDefaultName = config.values[KeyMainEventDefaultName]
	config.ClientPolicy = config.values[KeyClientPolicy]
	config.ServerPolicy = config.values[KeyServerPolicy]
	config.ServerBinary = config.values[KeyServerBinary]
	config.LogDir = config.values[KeyLogDir]
	// Normalized log levels always parse.
	config.LogLevel, _ = service.ParseLevel(config.values[KeyLogLevel])
	return config, nil
}

// resolveKey returns the canonical value of key. When the raw value is
// invalid it returns the default and a Fallback describing why; the
// caller decides whether that is acceptable.
func (l *Loader) resolveKey(key Key) (string, *Fallback) {
	raw := l.viper.GetString(key.Name)
	normalized, err := key.normalize(raw)
	if err == nil {
		return normalized, nil
	}
	return key.Default, &Fallback{
		Key:     key.Name,
		Value:   raw,
		Default: key.Default,
		Reason:  err.Error(),
	}
}

func (c Config) integer(key string) int {
	// Values of integer keys were normalized by strconv.Itoa.
	value, _ := strconv.Atoi(c.values[key])
	return value
}

// Default returns the configuration with every property at its
// default.
func Default() Config {
	config, err := NewLoader().Resolve()
	if err != nil {
		panic("config: defaults do not validate: " + err.Error())
	}
	return config
}
