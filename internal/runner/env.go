// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/crossbox/crossbox/internal/issue"
)

// ReservedEnvVar carries the configured target runner into the container.
const ReservedEnvVar = "CROSS_RUNNER"

// ValidateEnvVar splits a "VAR" or "VAR=value" entry from env.passthrough
// or env.volumes. hasValue reports whether "=" was present.
func ValidateEnvVar(entry string) (key, value string, hasValue bool, err error) {
	key, value, hasValue = strings.Cut(entry, "=")
	if key == ReservedEnvVar {
		return "", "", false, issue.NewErrorContext().
			WithOperation("forward environment").
			WithResource(entry).
			WithSuggestion("remove " + ReservedEnvVar + " from env.passthrough and env.volumes in Cross.toml").
			WithIssue(issue.ConfigInvalidId).
			Wrap(ErrReservedEnvVar).
			BuildError()
	}
	return key, value, hasValue, nil
}

// envArgs returns the -e flags shared by both strategies, followed by any
// engine options from CROSS_CONTAINER_OPTS.
func (r *Runner) envArgs(b Build) ([]string, error) {
	var args []string
	for _, entry := range b.Config.EnvPassthrough(b.Target) {
		if _, _, _, err := ValidateEnvVar(entry); err != nil {
			return nil, err
		}
		// A bare name makes the engine forward the value from our environment.
		args = append(args, "-e", entry)
	}

	args = append(args,
		"-e", "PKG_CONFIG_ALLOW_CROSS=1",
		"-e", "XARGO_HOME=/xargo",
		"-e", "CARGO_HOME=/cargo",
		"-e", "CARGO_TARGET_DIR=/target",
		"-e", ReservedEnvVar+"="+b.Config.Runner(b.Target),
	)
	if name := r.username(); name != "" {
		args = append(args, "-e", "USER="+name)
	}
	for _, name := range []string{"QEMU_STRACE", "CROSS_DEBUG"} {
		if value := r.getenv(name); value != "" {
			args = append(args, "-e", name+"="+value)
		}
	}

	opts, err := r.containerOpts()
	if err != nil {
		return nil, err
	}
	return append(args, opts...), nil
}

// containerOpts splits CROSS_CONTAINER_OPTS, or the deprecated DOCKER_OPTS,
// into engine arguments.
func (r *Runner) containerOpts() ([]string, error) {
	name := ContainerOptsEnvVar
	value := r.getenv(ContainerOptsEnvVar)
	if value != "" {
		if r.getenv(DockerOptsEnvVar) != "" {
			r.logger.Warnf("using both `%s` and `%s`.", ContainerOptsEnvVar, DockerOptsEnvVar)
		}
	} else {
		name = DockerOptsEnvVar
		value = r.getenv(DockerOptsEnvVar)
	}
	if value == "" {
		return nil, nil
	}

	fields, err := shell.Fields(value, r.getenv)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s %q: %w", name, value, err)
	}
	return fields, nil
}

func (r *Runner) username() string {
	u, err := r.currentUser()
	if err != nil {
		r.logger.Debug("could not look up the current user", "err", err)
		return ""
	}
	return u.Username
}

// userIDs returns the uid and gid the build runs as.
func (r *Runner) userIDs() (uid, gid string) {
	uid = r.getenv(UIDEnvVar)
	if uid == "" {
		uid = strconv.Itoa(r.getuid())
	}
	gid = r.getenv(GIDEnvVar)
	if gid == "" {
		gid = strconv.Itoa(r.getgid())
	}
	return uid, gid
}

// userArgs returns --user for engines that do not map the invoking user
// themselves.
func (r *Runner) userArgs() []string {
	if !r.engine.NeedsUserFlag() {
		return nil
	}
	uid, gid := r.userIDs()
	return []string{"--user", uid + ":" + gid}
}
