// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/testutil"
)

func (f remoteFixture) volumeSpec() VolumeSpec {
	return VolumeSpec{
		Target:   f.build.Target,
		Metadata: f.build.Metadata,
		Layout:   f.layout,
		CommitID: f.build.CommitID,
	}
}

func TestCreatePersistentVolume(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	keep := f.name + container.KeepSuffix
	rec := testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	r := f.runner(t, rec, nil)

	name, err := r.CreatePersistentVolume(context.Background(), f.volumeSpec())
	if err != nil {
		t.Fatalf("CreatePersistentVolume() error = %v", err)
	}
	if name != keep {
		t.Errorf("CreatePersistentVolume() = %q, want %q", name, keep)
	}
	if want, err := PersistentVolume(f.volumeSpec()); err != nil || name != want {
		t.Errorf("PersistentVolume() = %q, %v, want the created %q", want, err, name)
	}

	calls := rec.Calls()
	assertContains(t, calls, "volume create "+keep)
	assertContains(t, calls, "run --name "+f.name+" -v "+keep+":/cross -d "+FillImage+" sh -c sleep infinity")
	rec.AssertCalled(t, "exec "+f.name+" sh -c mkdir -p /cross/rust")
	rec.AssertNotCalled(t, "cp -a "+f.layout.cargo+"/registry")
	rec.AssertCalled(t, "stop "+f.name)
	rec.AssertCalled(t, "rm "+f.name)
	rec.AssertNotCalled(t, "volume rm")
}

func TestCreatePersistentVolume_CopyRegistry(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	r := f.runner(t, rec, map[string]string{CopyRegistryEnvVar: "1"})

	if _, err := r.CreatePersistentVolume(context.Background(), f.volumeSpec()); err != nil {
		t.Fatalf("CreatePersistentVolume() error = %v", err)
	}
	assertContains(t, rec.Calls(), "cp -a "+f.layout.cargo+" "+f.name+":/cross/cargo")
}

func TestCreatePersistentVolume_Exists(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	rec := testutil.NewMockCommandRecorder()
	r := f.runner(t, rec, nil)

	_, err := r.CreatePersistentVolume(context.Background(), f.volumeSpec())
	if !errors.Is(err, container.ErrPreconditionViolated) {
		t.Fatalf("CreatePersistentVolume() error = %v, want ErrPreconditionViolated", err)
	}
	if id := issue.IdOf(err); id != issue.PreconditionFailedId {
		t.Errorf("IdOf() = %d, want PreconditionFailedId", id)
	}
	rec.AssertNotCalled(t, "volume create")
}

func TestRemovePersistentVolume(t *testing.T) {
	t.Parallel()

	f := newRemoteFixture(t)
	keep := f.name + container.KeepSuffix

	rec := testutil.NewMockCommandRecorder()
	if err := f.runner(t, rec, nil).RemovePersistentVolume(context.Background(), f.volumeSpec()); err != nil {
		t.Fatalf("RemovePersistentVolume() error = %v", err)
	}
	rec.AssertCalled(t, "volume rm "+keep)

	rec = testutil.NewMockCommandRecorder().On("volume inspect", testutil.MockResponse{ExitCode: 1})
	err := f.runner(t, rec, nil).RemovePersistentVolume(context.Background(), f.volumeSpec())
	if !errors.Is(err, container.ErrPreconditionViolated) {
		t.Fatalf("RemovePersistentVolume() error = %v, want ErrPreconditionViolated", err)
	}
	rec.AssertNotCalled(t, "volume rm")
}
