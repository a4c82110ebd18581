// SPDX-License-Identifier: MPL-2.0

package config

type (
	// EnvConfig is an [*.env] table.
	EnvConfig struct {
		// Volumes are VAR or VAR=path entries mounted at the same path.
		Volumes []string `mapstructure:"volumes"`
		// Passthrough are VAR or VAR=value entries forwarded to the container.
		Passthrough []string `mapstructure:"passthrough"`
	}

	// BuildConfig is the [build] table, applying to every target.
	BuildConfig struct {
		Xargo         *bool     `mapstructure:"xargo"`
		BuildStd      *bool     `mapstructure:"build-std"`
		DefaultTarget string    `mapstructure:"default-target"`
		Env           EnvConfig `mapstructure:"env"`
	}

	// TargetConfig is a [target.<triple>] table.
	TargetConfig struct {
		Xargo    *bool     `mapstructure:"xargo"`
		BuildStd *bool     `mapstructure:"build-std"`
		Image    string    `mapstructure:"image"`
		Runner   string    `mapstructure:"runner"`
		Env      EnvConfig `mapstructure:"env"`
	}

	// File is the decoded content of Cross.toml.
	File struct {
		Build   BuildConfig             `mapstructure:"build"`
		Targets map[string]TargetConfig `mapstructure:"target"`
	}
)
