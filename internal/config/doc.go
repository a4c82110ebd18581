// SPDX-License-Identifier: MPL-2.0

// Package config loads Cross.toml, the per-project build configuration.
//
// The file is decoded as TOML, validated against an embedded CUE schema
// (config_schema.cue) so unknown keys and mistyped values are rejected with
// a path to the offending field, and merged into Viper. CROSS_BUILD_* and
// CROSS_TARGET_<TRIPLE>_* environment variables take precedence over the
// file.
package config
