// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/target"
)

const (
	// FileName is the name of the configuration file at the workspace root.
	FileName = "Cross.toml"

	// PathEnvVar overrides the configuration file location.
	PathEnvVar = "CROSS_CONFIG"

	// maxFileSize bounds the configuration file read into memory.
	maxFileSize int64 = 5 * 1024 * 1024

	// keyDelimiter separates Viper key segments. Triples contain dots, so
	// the default "." would split them.
	keyDelimiter = "::"
)

//go:embed config_schema.cue
var configSchema string

// ErrConfigNotFound is returned when an explicitly requested file is missing.
var ErrConfigNotFound = errors.New("config file not found")

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// Path forces loading from a specific file when set.
		Path string
		// WorkspaceRoot is searched for Cross.toml when Path is unset.
		WorkspaceRoot string
		// Getenv reads CROSS_CONFIG and the overrides. A nil Getenv means
		// os.Getenv.
		Getenv func(string) string
	}

	// Provider loads configuration from explicit options.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	// Config answers per-target configuration queries, consulting the
	// environment before the file.
	Config struct {
		file File
		path string
		env  environment
	}

	fileProvider struct{}
)

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return Load(ctx, opts)
}

// Load resolves and reads Cross.toml. The file is optional unless a path was
// given explicitly or through CROSS_CONFIG.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := &Config{env: environment{getenv: getenv}}

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		if p := getenv(PathEnvVar); p != "" {
			path, explicit = p, true
		} else if opts.WorkspaceRoot != "" {
			path = filepath.Join(opts.WorkspaceRoot, FileName)
		}
	}
	if path == "" {
		return cfg, nil
	}

	if !fileExists(path) {
		if !explicit {
			return cfg, nil
		}
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Unset " + PathEnvVar + " to use the Cross.toml at the workspace root").
			WithIssue(issue.ConfigInvalidId).
			Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, path)).
			BuildError()
	}

	file, err := loadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid TOML").
			WithSuggestion("Verify the keys and values match the documented Cross.toml layout").
			WithIssue(issue.ConfigInvalidId).
			Wrap(err).
			BuildError()
	}
	cfg.file = *file
	cfg.path = path
	return cfg, nil
}

// loadFile decodes TOML, validates it against the #Config schema, and
// unmarshals it through Viper.
func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if int64(len(data)) > maxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxFileSize)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.Encode(raw)
	if userValue.Err() != nil {
		return nil, formatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return nil, formatError(err, path)
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetDefault("build"+keyDelimiter+"env"+keyDelimiter+"volumes", []string{})
	v.SetDefault("build"+keyDelimiter+"env"+keyDelimiter+"passthrough", []string{})
	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var file File
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &file, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Path returns the file the configuration was read from, or "" if none.
func (c *Config) Path() string { return c.path }

func (c *Config) target(t target.Triple) TargetConfig {
	return c.file.Targets[t.String()]
}

// Image returns the configured image for t, or "".
func (c *Config) Image(t target.Triple) string {
	if v, ok := c.env.lookup(c.env.targetKey(t, "IMAGE")); ok {
		return v
	}
	return c.target(t).Image
}

// Runner returns the configured runner for t, or "".
func (c *Config) Runner(t target.Triple) string {
	if v, ok := c.env.lookup(c.env.targetKey(t, "RUNNER")); ok {
		return v
	}
	return c.target(t).Runner
}

// Xargo reports whether t is built with xargo. The target setting wins over
// the build setting; unset means false.
func (c *Config) Xargo(t target.Triple) bool {
	for _, b := range []*bool{
		c.env.bool(c.env.targetKey(t, "XARGO")),
		c.target(t).Xargo,
		c.env.bool(c.env.buildKey("XARGO")),
		c.file.Build.Xargo,
	} {
		if b != nil {
			return *b
		}
	}
	return false
}

// BuildStd reports whether the standard library is built from source for t.
func (c *Config) BuildStd(t target.Triple) bool {
	for _, b := range []*bool{c.target(t).BuildStd, c.file.Build.BuildStd} {
		if b != nil {
			return *b
		}
	}
	return false
}

// EnvPassthrough returns the variables forwarded for t: the build list
// followed by the target list.
func (c *Config) EnvPassthrough(t target.Triple) []string {
	build, ok := c.env.list(c.env.buildKey("ENV_PASSTHROUGH"))
	if !ok {
		build = c.file.Build.Env.Passthrough
	}
	return slices.Concat(build, c.target(t).Env.Passthrough)
}

// EnvVolumes returns the variables naming paths mounted for t: the build
// list followed by the target list.
func (c *Config) EnvVolumes(t target.Triple) []string {
	build, ok := c.env.list(c.env.buildKey("ENV_VOLUMES"))
	if !ok {
		build = c.file.Build.Env.Volumes
	}
	return slices.Concat(build, c.target(t).Env.Volumes)
}

// DefaultTarget returns the configured default target, or "".
func (c *Config) DefaultTarget() target.Triple {
	return target.Triple(c.file.Build.DefaultTarget)
}
