// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/testutil"
)

const hostTriple = "x86_64-unknown-linux-gnu"

type remoteFixture struct {
	layout fakeLayout
	build  Build
	name   string
}

// newRemoteFixture lays out a project, a cargo home and a sysroot on disk.
// The output directory lives inside the project.
func newRemoteFixture(t *testing.T) remoteFixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	project := filepath.Join(root, "ws")
	cargo := filepath.Join(root, "cargo")
	sysroot := filepath.Join(root, "sysroot")

	writeFile(t, filepath.Join(project, "Cargo.toml"), "[package]")
	writeFile(t, filepath.Join(project, "target", cacheDirTag), cacheDirSignature+"\n")
	writeFile(t, filepath.Join(cargo, "config.toml"), "")
	writeFile(t, filepath.Join(cargo, "bin", "cross"), "")
	writeFile(t, filepath.Join(cargo, "registry", "index"), "")
	writeFile(t, filepath.Join(cargo, ".package-cache"), "")
	writeFile(t, filepath.Join(sysroot, "bin", "rustc"), "")
	writeFile(t, filepath.Join(sysroot, "lib", "librustc_driver.so"), "")
	writeFile(t, filepath.Join(sysroot, "lib", "rustlib", "components"), "")
	writeFile(t, filepath.Join(sysroot, "lib", "rustlib", string(testTriple), "lib", "libstd.rlib"), "")
	writeFile(t, filepath.Join(sysroot, "lib", "rustlib", hostTriple, "lib", "libstd.rlib"), "")

	layout := fakeLayout{
		cargo:     cargo,
		xargo:     filepath.Join(root, "xargo"),
		target:    filepath.Join(project, "target"),
		hostRoot:  project,
		mountRoot: project,
		mountCwd:  project,
		sysroot:   sysroot,
	}
	b := Build{
		Target:   testTriple,
		Image:    testImage,
		Args:     []string{"build"},
		Metadata: workspace(project),
		Layout:   layout,
		Config:   fakeConfig{},
		Cwd:      project,
		CommitID: "deadbeef",
	}
	name, err := Identity(b.Metadata, b.Target, sysroot, b.CommitID)
	if err != nil {
		t.Fatal(err)
	}
	return remoteFixture{layout: layout, build: b, name: name}
}

func (f remoteFixture) runner(t *testing.T, rec *testutil.MockCommandRecorder, vars map[string]string) *Runner {
	t.Helper()
	e := newTestEngine(t, rec, container.KindDocker, true)
	libdir := filepath.Join(f.layout.sysroot, "lib", "rustlib", hostTriple, "lib")
	return newTestRunner(e, vars, WithToolchain(fakeToolchain{libdir: libdir}))
}

func assertContains(t *testing.T, calls []string, want string) {
	t.Helper()
	if !slices.Contains(calls, want) {
		t.Errorf("missing call %q in:\n  %s", want, strings.Join(calls, "\n  "))
	}
}

func TestRun_RemoteDiscardVolume(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().
		On("volume inspect", testutil.MockResponse{ExitCode: 1}).
		On("exec --user", testutil.MockResponse{ExitCode: 101})
	r := f.runner(t, rec, nil)

	code, err := r.Run(context.Background(), f.build)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 101 {
		t.Errorf("Run() = %d, want the build's 101", code)
	}

	n, l := f.name, f.layout
	calls := rec.Calls()
	assertContains(t, calls, "volume create "+n)
	assertContains(t, calls, strings.Join([]string{
		"run --userns host --name", n, "-v", n + ":/cross",
		"-e PKG_CONFIG_ALLOW_CROSS=1 -e XARGO_HOME=/xargo -e CARGO_HOME=/cargo -e CARGO_TARGET_DIR=/target",
		"-e CROSS_RUNNER= -e USER=dev -v /cross/cargo/bin -d", testImage, "sh -c sleep infinity",
	}, " "))

	// cargo home without registry and dotfiles
	assertContains(t, calls, "exec "+n+" sh -c mkdir -p /cross/cargo")
	assertContains(t, calls, "cp -a "+filepath.Join(l.cargo, "bin")+" "+n+":/cross/cargo")
	assertContains(t, calls, "cp -a "+filepath.Join(l.cargo, "config.toml")+" "+n+":/cross/cargo")
	rec.AssertNotCalled(t, "cp -a "+filepath.Join(l.cargo, "registry"))
	rec.AssertNotCalled(t, "cp -a "+filepath.Join(l.cargo, ".package-cache"))

	// sysroot subset
	assertContains(t, calls, "cp -a "+filepath.Join(l.sysroot, "bin")+" "+n+":/cross/rust")
	assertContains(t, calls, "exec "+n+" sh -c mkdir -p /cross/rust/lib/rustlib")
	assertContains(t, calls, "cp -a "+filepath.Join(l.sysroot, "lib", "rustlib", string(testTriple))+" "+n+":/cross/rust/lib/rustlib")
	assertContains(t, calls, "cp -a "+filepath.Join(l.sysroot, "lib", "rustlib", hostTriple)+" "+n+":/cross/rust/lib/rustlib")
	rec.AssertNotCalled(t, "cp -a "+filepath.Join(l.sysroot, "libexec"))

	// no xargo sysroot was built
	rec.AssertNotCalled(t, "exec "+n+" sh -c mkdir -p /cross/xargo/lib/rustlib")

	// the output directory is inside the project and linked, not created
	rec.AssertNotCalled(t, "exec "+n+" sh -c mkdir -p /cross/target")
	script := rec.Invocations[rec.Index("exec "+n+" sh -c set")].Args[4]
	if !strings.Contains(script, "ln -s /cross/project/target /target") {
		t.Errorf("output directory not linked:\n%s", script)
	}

	build := rec.Index("exec --user 1000:1000 -w /project " + n + " sh -c")
	if build < 0 {
		t.Fatalf("build not executed:\n  %s", strings.Join(calls, "\n  "))
	}
	if got := rec.Invocations[build].Args[len(rec.Invocations[build].Args)-1]; got != "PATH=/rust/bin:$PATH cargo build" {
		t.Errorf("build command = %q", got)
	}
	assertContains(t, calls, "cp -a "+n+":/cross/project/target/. "+l.target)

	if !(rec.Index("volume create") < rec.Index("run --userns host") &&
		rec.Index("run --userns host") < build &&
		build < rec.Index("stop "+n) &&
		rec.Index("stop "+n) < rec.Index("rm "+n) &&
		rec.Index("rm "+n) < rec.Index("volume rm "+n)) {
		t.Errorf("unexpected order:\n  %s", strings.Join(calls, "\n  "))
	}
}

func TestRun_RemoteProjectCopySkipsCaches(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	r := f.runner(t, rec, nil)

	if _, err := r.Run(context.Background(), f.build); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, call := range rec.Calls() {
		if strings.HasPrefix(call, "cp -a "+f.layout.hostRoot+" ") {
			t.Errorf("project copied directly despite cache skipping: %s", call)
		}
	}
	found := false
	for _, call := range rec.Calls() {
		if strings.HasPrefix(call, "cp -a ") && strings.HasSuffix(call, " "+f.name+":/cross/project") {
			found = true
		}
	}
	if !found {
		t.Errorf("project not staged:\n  %s", strings.Join(rec.Calls(), "\n  "))
	}

	rec = testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	r = f.runner(t, rec, map[string]string{CopyCacheEnvVar: "1"})
	if _, err := r.Run(context.Background(), f.build); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertContains(t, rec.Calls(), "cp -a "+f.layout.hostRoot+"/. "+f.name+":/cross/project")
}

func TestRun_RemoteKeepVolume(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 0})
	r := f.runner(t, rec, nil)

	if _, err := r.Run(context.Background(), f.build); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	keep := f.name + container.KeepSuffix
	assertContains(t, rec.Calls(), "volume inspect "+keep)
	rec.AssertNotCalled(t, "volume create")
	rec.AssertNotCalled(t, "volume rm")
	rec.AssertNotCalled(t, "exec "+f.name+" sh -c mkdir -p /cross/rust")
	if rec.Index("run --userns host --name "+f.name+" -v "+keep+":/cross") < 0 {
		t.Errorf("persistent volume not mounted:\n  %s", strings.Join(rec.Calls(), "\n  "))
	}

	// the volume still holds the project of the previous run
	reset := rec.Index("exec " + f.name + " sh -c rm -rf /cross/project && mkdir -p /cross/project")
	if reset < 0 {
		t.Fatalf("stale project copy not removed:\n  %s", strings.Join(rec.Calls(), "\n  "))
	}
	staged := -1
	for i, call := range rec.Calls() {
		if strings.HasPrefix(call, "cp -a ") && strings.HasSuffix(call, "/. "+f.name+":/cross/project") {
			staged = i
		}
	}
	if staged < reset {
		t.Errorf("project contents not copied after the reset:\n  %s", strings.Join(rec.Calls(), "\n  "))
	}
}

func TestRun_RemoteSymlinkCollision(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().
		On("volume inspect", testutil.MockResponse{ExitCode: 1}).
		On("exec "+f.name+" sh -c set", testutil.MockResponse{ExitCode: SymlinkCollisionExitCode})
	r := f.runner(t, rec, nil)

	code, err := r.Run(context.Background(), f.build)
	if !errors.Is(err, ErrSymlinkCollision) {
		t.Fatalf("Run() error = %v, want ErrSymlinkCollision", err)
	}
	if id := issue.IdOf(err); id != issue.SymlinkCollisionId {
		t.Errorf("IdOf() = %d, want SymlinkCollisionId", id)
	}
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
	rec.AssertNotCalled(t, "exec --user")
	rec.AssertCalled(t, "volume rm "+f.name)
}

func TestRun_RemoteStartFailureReleases(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().
		On("volume inspect", testutil.MockResponse{ExitCode: 1}).
		On("run", testutil.MockResponse{ExitCode: 1, Stderr: "pull access denied"})
	r := f.runner(t, rec, nil)

	_, err := r.Run(context.Background(), f.build)
	if !errors.Is(err, container.ErrExecutionFailed) {
		t.Fatalf("Run() error = %v, want ErrExecutionFailed", err)
	}
	rec.AssertNotCalled(t, "cp")
	rec.AssertCalled(t, "stop "+f.name)
	rec.AssertCalled(t, "volume rm "+f.name)
}

func TestRun_RemoteNameConflictNotRetried(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().
		On("volume inspect", testutil.MockResponse{ExitCode: 1}).
		On("run", testutil.MockResponse{ExitCode: 125, Stderr: "Conflict. The container name is already in use"})
	r := f.runner(t, rec, nil)

	if _, err := r.Run(context.Background(), f.build); err == nil || !strings.Contains(err.Error(), "Conflict") {
		t.Fatalf("Run() error = %v, want the name conflict", err)
	}
	starts := 0
	for _, call := range rec.Calls() {
		if strings.HasPrefix(call, "run ") {
			starts++
		}
	}
	if starts != 1 {
		t.Errorf("container started %d times, want 1", starts)
	}
}

func TestRun_RemoteExtraVolumes(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	outside, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inside := filepath.Join(f.layout.hostRoot, "assets")
	writeFile(t, filepath.Join(inside, "logo.svg"), "")

	b := f.build
	b.Config = fakeConfig{volumes: []string{"DATA=" + outside, "ASSETS=" + inside}}
	rec := testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	r := f.runner(t, rec, map[string]string{CopyCacheEnvVar: "true"})

	if _, err := r.Run(context.Background(), b); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mountRoot := "/cross" + f.layout.mountRoot
	run := strings.Join(rec.Invocations[rec.Index("run --userns host")].Args, " ")
	if !strings.Contains(run, "-e DATA="+outside+" -e ASSETS="+inside) {
		t.Errorf("env volumes not forwarded: %s", run)
	}
	if strings.Contains(run, outside+":") {
		t.Errorf("remote run must not bind-mount: %s", run)
	}
	assertContains(t, rec.Calls(), "exec "+f.name+" sh -c rm -rf "+mountRoot+" && mkdir -p "+mountRoot)
	assertContains(t, rec.Calls(), "cp -a "+f.layout.hostRoot+"/. "+f.name+":"+mountRoot)
	assertContains(t, rec.Calls(), "exec "+f.name+" sh -c rm -rf /cross"+outside+" && mkdir -p /cross"+outside)
	assertContains(t, rec.Calls(), "cp -a "+outside+"/. "+f.name+":/cross"+outside)

	script := rec.Invocations[rec.Index("exec "+f.name+" sh -c set")].Args[4]
	if !strings.Contains(script, "ln -s "+mountRoot+"/assets "+inside) {
		t.Errorf("nested volume not linked:\n%s", script)
	}
	if rec.Index("exec --user 1000:1000 -w "+f.layout.mountCwd+" "+f.name) < 0 {
		t.Errorf("build not run in the mounted cwd:\n  %s", strings.Join(rec.Calls(), "\n  "))
	}
}
