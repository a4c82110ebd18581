// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

const (
	EngineNotFoundId Id = iota + 1
	ImageNotAvailableId
	UnsupportedStorageDriverId
	SymlinkCollisionId
	ConfigInvalidId
	MetadataUnavailableId
	PreconditionFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // documentation pages for this issue
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue as terminal Markdown using the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# No container engine found!

crossbox runs every build inside a container and needs a docker-compatible
engine on your PATH.

## Things you can try:
- Install Docker or Podman
- Point crossbox at a specific binary:
~~~
$ CROSS_CONTAINER_ENGINE=/usr/local/bin/podman crossbox run -- build
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/engine/install/", "https://podman.io/docs/installation"},
	}

	imageNotAvailableIssue = &Issue{
		id: ImageNotAvailableId,
		mdMsg: `
# No image for this target!

There is no prebuilt image for the requested target triple.

## Things you can try:
- Configure an image for the target in Cross.toml:
~~~toml
[target.my-custom-target]
image = "registry.example.com/my-custom-target:latest"
~~~

- Or set it through the environment:
~~~
$ CROSS_TARGET_MY_CUSTOM_TARGET_IMAGE=registry.example.com/img:tag crossbox run -- build
~~~`,
	}

	unsupportedStorageDriverIssue = &Issue{
		id: UnsupportedStorageDriverId,
		mdMsg: `
# Unsupported storage driver!

crossbox is running inside a container and tried to translate its own paths
to host paths. This only works when the engine uses the overlay2 storage
driver.

## Things you can try:
- Switch the engine to the overlay2 storage driver
- Use remote mode, which copies data instead of bind mounting it:
~~~
$ crossbox run --remote -- build
~~~`,
	}

	symlinkCollisionIssue = &Issue{
		id: SymlinkCollisionId,
		mdMsg: `
# Staged files collide with the image!

While rebuilding the project layout inside the container, a regular file
was found where a staged path needs to be linked. Building anyway would use
the wrong data.

## Things you can try:
- Use an image that does not ship files under /cargo, /xargo, /rust,
  /project or /target
- Move extra volumes configured in env.volumes to paths the image does not use`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid Cross.toml!

The configuration file could not be parsed or did not match the schema.

## Supported keys:
~~~toml
[build]
xargo = false
build-std = false
default-target = "aarch64-unknown-linux-gnu"

[build.env]
volumes = ["VAR"]
passthrough = ["RUST_LOG"]

[target.aarch64-unknown-linux-gnu]
image = "my/image:tag"
runner = "qemu-user"
xargo = false
~~~`,
	}

	metadataUnavailableIssue = &Issue{
		id: MetadataUnavailableId,
		mdMsg: `
# Project metadata unavailable!

crossbox asks cargo for the workspace layout before starting a container.

## Things you can try:
- Run the command from inside a Cargo project
- Check that the manifest is valid:
~~~
$ cargo metadata --format-version 1 --no-deps
~~~`,
	}

	preconditionFailedIssue = &Issue{
		id: PreconditionFailedId,
		mdMsg: `
# Persistent volume state mismatch!

A persistent build volume was expected to exist (or not exist) for this
project, target and toolchain.

## Things you can try:
- List existing volumes:
~~~
$ crossbox volumes list
~~~

- Remove a stale persistent volume before creating it again:
~~~
$ crossbox volumes remove-persistent --target <triple>
~~~`,
	}

	issues = map[Id]*Issue{
		engineNotFoundIssue.Id():           engineNotFoundIssue,
		imageNotAvailableIssue.Id():        imageNotAvailableIssue,
		unsupportedStorageDriverIssue.Id(): unsupportedStorageDriverIssue,
		symlinkCollisionIssue.Id():         symlinkCollisionIssue,
		configInvalidIssue.Id():            configInvalidIssue,
		metadataUnavailableIssue.Id():      metadataUnavailableIssue,
		preconditionFailedIssue.Id():       preconditionFailedIssue,
	}
)

// Values returns all catalog entries ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
