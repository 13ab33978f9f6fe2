// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper.
//
// Configuration is loaded from ~/.config/sgpipe/config.yaml (or the XDG
// equivalent on Linux, ~/Library/Application Support/sgpipe/config.yaml
// on macOS, %APPDATA%\sgpipe\config.yaml on Windows), with a config.yaml
// in the current directory as a fallback. All keys are optional; command
// line flags take precedence over config file values, which take
// precedence over built-in defaults.
package config
