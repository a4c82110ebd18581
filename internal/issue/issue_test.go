// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues_CoversEveryId(t *testing.T) {
	t.Parallel()

	ids := []Id{
		EngineNotFoundId,
		ImageNotAvailableId,
		UnsupportedStorageDriverId,
		SymlinkCollisionId,
		ConfigInvalidId,
		MetadataUnavailableId,
		PreconditionFailedId,
	}

	values := Values()
	if len(values) != len(ids) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(ids))
	}
	for i, id := range ids {
		if values[i].Id() != id {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, values[i].Id(), id)
		}
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil", id)
		}
		if strings.TrimSpace(string(Get(id).MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", id)
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestIssue_DocLinksIsCopy(t *testing.T) {
	t.Parallel()

	i := Get(EngineNotFoundId)
	links := i.DocLinks()
	if len(links) == 0 {
		t.Fatal("EngineNotFound issue should carry doc links")
	}
	links[0] = "mutated"
	if i.DocLinks()[0] == "mutated" {
		t.Error("DocLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(ImageNotAvailableId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "No image for this target") {
		t.Errorf("Render() output missing heading:\n%s", out)
	}
}
