package merge

import (
	"testing"

	"github.com/goliatone/go-formprompt/pkg/testsupport"
)

func TestMerge_ServiceReplyOverlappingLockedField(t *testing.T) {
	resp := testsupport.MustLoadProposal(t, "../../testdata/proposals/locked_overlap.json")

	result := New().Merge(testsupport.MustLoadForm(t, "testdata/base_5411.json").Fields, resp.Fields)

	if len(result.Discarded) != 1 || result.Discarded[0].Reason != ReasonLockedName {
		t.Fatalf("expected firstName discarded as locked, got %#v", result.Discarded)
	}
	if len(result.Added) != 1 {
		t.Fatalf("expected one added field, got %#v", result.Added)
	}
	added := result.Added[0]
	if added.Name != "date" || added.ID != "field_4" || added.Locked {
		t.Fatalf("unexpected added field: %#v", added)
	}
	if got := len(result.Fields()); got != 4 {
		t.Fatalf("expected 4 fields, got %d", got)
	}
}
