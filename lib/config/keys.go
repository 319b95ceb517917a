// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/eventlog/lib/service"
)

// Property keys.
const (
	KeyUseDefaultOnInvalid  = "event_logger.properties.use_default_on_invalid_value"
	KeyNamingConvention     = "event_logger.naming_convention"
	KeyPort                 = "event_logger.rmi.port"
	KeyRegistryPort         = "event_logger.rmi_registry.port"
	KeyURL                  = "event_logger.rmi.url"
	KeyRetries              = "event_logger.rmi.client.connection.retries"
	KeyRetryDelay           = "event_logger.rmi.client.connection.retry_delay"
	KeyMainEventDefaultName = "event_logger.rmi.server.main_event_default_name"
	KeyClientPolicy         = "event_logger.rmi.client.policy"
	KeyServerPolicy         = "event_logger.rmi.server.policy"
	KeyServerBinary         = "event_logger.server.binary"
	KeyLogDir               = "event_logger.log_dir"
	KeyLogLevel             = "event_logger.log_level"
)

// Key describes one configuration property.
type Key struct {
	Name        string
	Default     string
	Description string

	// normalize validates a raw value and returns its canonical form.
	normalize func(string) (string, error)
}

// Keys lists every property in a stable order.
var Keys = []Key{
	{
		Name:        KeyUseDefaultOnInvalid,
		Default:     "true",
		Description: "If a property's value is not valid, the default value will be used instead",
		normalize:   normalizeBool,
	},
	{
		Name:        KeyNamingConvention,
		Default:     string(AsIs),
		Description: "Naming convention used for event names, one of AS_IS, LOWERCASE, UPPERCASE",
		normalize:   normalizeNamingConvention,
	},
	{
		Name:        KeyPort,
		Default:     "0",
		Description: "Port the server listens on for queries (0 means a random port)",
		normalize:   normalizePort,
	},
	{
		Name:        KeyRegistryPort,
		Default:     "1099",
		Description: "Port of the directory the server is published in",
		normalize:   normalizePort,
	},
	{
		Name:        KeyURL,
		Default:     "127.0.0.1",
		Description: "Host of the server and its directory",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyRetries,
		Default:     "5",
		Description: "How many retries will be made to connect to the server",
		normalize:   normalizeNonNegative,
	},
	{
		Name:        KeyRetryDelay,
		Default:     "2",
		Description: "Delay in seconds between connection retries",
		normalize:   normalizeNonNegative,
	},
	{
		Name:        KeyMainEventDefaultName,
		Default:     "MAIN",
		Description: "The main event name used when none is given",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyClientPolicy,
		Default:     "eventloggerclient.policy",
		Description: "The policy file used by the client",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyServerPolicy,
		Default:     "eventloggerserver.policy",
		Description: "The policy file used by the server",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyServerBinary,
		Default:     "eventlog-server",
		Description: "Server executable spawned by clients when no server is running",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyLogDir,
		Default:     "logs",
		Description: "Directory receiving the spawned server's output logs",
		normalize:   normalizeNonEmpty,
	},
	{
		Name:        KeyLogLevel,
		Default:     "info",
		Description: "Log level, one of debug, info, warn, error",
		normalize:   normalizeLogLevel,
	},
}

// LookupKey returns the Key named name.
func LookupKey(name string) (Key, bool) {
	for _, key := range Keys {
		if key.Name == name {
			return key, true
		}
	}
	return Key{}, false
}

// Usage returns the key's description with its default appended.
func (k Key) Usage() string {
	return fmt.Sprintf("%s. Default value is %s", k.Description, k.Default)
}

func normalizeBool(value string) (string, error) {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return "", errors.New("not a boolean")
	}
	return strconv.FormatBool(parsed), nil
}

func normalizeNamingConvention(value string) (string, error) {
	convention := NamingConvention(strings.ToUpper(strings.TrimSpace(value)))
	switch convention {
	case AsIs, Lowercase, Uppercase:
		return string(convention), nil
	}
	return "", errors.New("unknown naming convention")
}

func normalizeNonNegative(value string) (string, error) {
	number, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", errors.New("not an integer")
	}
	if number < 0 {
		return "", errors.New("negative")
	}
	return strconv.Itoa(number), nil
}

func normalizePort(value string) (string, error) {
	normalized, err := normalizeNonNegative(value)
	if err != nil {
		return "", err
	}
	if port, _ := strconv.Atoi(normalized); port > 65535 {
		return "", errors.New("port out of range")
	}
	return normalized, nil
}

func normalizeNonEmpty(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", errors.New("empty")
	}
	return value, nil
}

func normalizeLogLevel(value string) (string, error) {
	level, err := service.ParseLevel(value)
	if err != nil {
		return "", errors.New("unknown log level")
	}
	return strings.ToLower(level.String()), nil
}
