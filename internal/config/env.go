// SPDX-License-Identifier: MPL-2.0

package config

import (
	"strconv"
	"strings"

	"github.com/crossbox/crossbox/internal/target"
)

const (
	envPrefix       = "CROSS_"
	buildEnvPrefix  = envPrefix + "BUILD_"
	targetEnvPrefix = envPrefix + "TARGET_"
)

// EnvBool interprets a boolean environment variable: true/false and the
// other strconv.ParseBool spellings, else an integer where non-zero is true,
// else any non-empty value is true.
func EnvBool(value string) bool {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n != 0
	}
	return value != ""
}

// environment reads the CROSS_ overrides.
type environment struct {
	getenv func(string) string
}

func (e environment) lookup(key string) (string, bool) {
	v := e.getenv(key)
	return v, v != ""
}

func (e environment) bool(key string) *bool {
	v, ok := e.lookup(key)
	if !ok {
		return nil
	}
	b := EnvBool(v)
	return &b
}

func (e environment) list(key string) ([]string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return nil, false
	}
	return strings.Fields(v), true
}

func (e environment) buildKey(name string) string {
	return buildEnvPrefix + name
}

func (e environment) targetKey(t target.Triple, name string) string {
	return targetEnvPrefix + t.EnvKey() + "_" + name
}
