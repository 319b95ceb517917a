// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves eventlog configuration properties.
//
// Every property has a dotted key (event_logger.rmi.port), a default,
// and a validator. Values come from, in precedence order: command-line
// flags named after the key (--event_logger.rmi.port=7000), environment
// variables with dots replaced by underscores (EVENT_LOGGER_RMI_PORT),
// an optional YAML config file, and finally the default. Resolution is
// backed by a private [viper.Viper] instance per [Loader].
//
// An invalid value falls back to the key's default when
// event_logger.properties.use_default_on_invalid_value is true (the
// default); otherwise [Loader.Resolve] fails.
//
// [Config.AsArgs] re-serializes a resolved configuration as flags, so
// a client can hand its exact configuration to a server it spawns.
package config
