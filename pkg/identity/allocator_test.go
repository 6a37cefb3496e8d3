package identity

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formprompt/pkg/model"
)

func TestAllocate_CollidingIDTakesNextNumber(t *testing.T) {
	existing := []model.Field{
		{ID: "field_4", Name: "phoneNumber"},
		{ID: "field_7", Name: "city"},
	}
	candidates := []model.Field{{ID: "field_4", Name: "email"}}

	got := Allocate(existing, candidates)
	if len(got) != 1 || got[0].ID != "field_8" {
		t.Fatalf("expected field_8, got %#v", got)
	}
	if candidates[0].ID != "field_4" {
		t.Fatalf("input candidate was mutated: %#v", candidates[0])
	}
}

func TestAllocate_KeepsFreeIdentifiers(t *testing.T) {
	existing := []model.Field{{ID: "field_1", Name: "firstName", Locked: true}}
	candidates := []model.Field{{ID: "field_ia_1", Name: "email"}}

	got := Allocate(existing, candidates)
	if got[0].ID != "field_ia_1" {
		t.Fatalf("expected id to be kept, got %q", got[0].ID)
	}
}

func TestAllocate_LockedIdentifiersAreReserved(t *testing.T) {
	existing := []model.Field{
		{ID: "field_1", Name: "firstName", Locked: true},
		{ID: "field_2", Name: "lastName", Locked: true},
	}
	candidates := []model.Field{
		{ID: "field_1", Name: "email"},
		{ID: "field_2", Name: "phone"},
	}

	got := Allocate(existing, candidates)
	want := []string{"field_3", "field_4"}
	if diff := cmp.Diff(want, idsOf(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_MissingAndDuplicateCandidateIDs(t *testing.T) {
	existing := []model.Field{{ID: "custom", Name: "custom"}}
	candidates := []model.Field{
		{Name: "a"},
		{ID: "dup", Name: "b"},
		{ID: "dup", Name: "c"},
		{ID: "custom", Name: "d"},
	}

	got := Allocate(existing, candidates)
	want := []string{"field_1", "dup", "field_2", "field_3"}
	if diff := cmp.Diff(want, idsOf(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_KeptNumberedIDRaisesCounter(t *testing.T) {
	existing := []model.Field{{ID: "field_2", Name: "x"}}
	candidates := []model.Field{
		{ID: "field_9", Name: "a"},
		{ID: "field_2", Name: "b"},
	}

	got := Allocate(existing, candidates)
	want := []string{"field_9", "field_10"}
	if diff := cmp.Diff(want, idsOf(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	existing := []model.Field{{ID: "field_3", Name: "x"}, {ID: "weird_99", Name: "y"}}
	candidates := []model.Field{{ID: "field_3", Name: "a"}, {Name: "b"}, {ID: "weird_99", Name: "c"}}

	first := Allocate(existing, candidates)
	second := Allocate(existing, candidates)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("allocation is not reproducible:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"field_4", "field_5", "field_6"}, idsOf(first)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_NewIDsExceedObservedMaximum(t *testing.T) {
	existing := []model.Field{{ID: "field_12"}, {ID: "field_3"}, {ID: "field_x"}}
	got := Allocate(existing, []model.Field{{ID: "field_3", Name: "n"}})

	n, ok := ParseNumber(got[0].ID)
	if !ok || n <= MaxNumber(existing) {
		t.Fatalf("expected id above %d, got %q", MaxNumber(existing), got[0].ID)
	}
}

func TestAllocate_CounterAtMaxIntRestartsAtLowestFree(t *testing.T) {
	top := "field_" + strconv.Itoa(math.MaxInt)
	existing := []model.Field{{ID: top}, {ID: "field_1"}}
	candidates := []model.Field{{ID: top, Name: "a"}, {ID: top, Name: "b"}}

	got := Allocate(existing, candidates)
	if diff := cmp.Diff([]string{"field_2", "field_3"}, idsOf(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	for _, field := range got {
		n, ok := ParseNumber(field.ID)
		if !ok || n < 0 || field.ID == top {
			t.Fatalf("invalid id %q", field.ID)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]struct {
		n  int
		ok bool
	}{
		"field_0":    {0, true},
		"field_42":   {42, true},
		"field_ia_1": {0, false},
		"xfield_4":   {0, false},
		"field_4a":   {0, false},
		"":           {0, false},
	}
	for id, want := range cases {
		n, ok := ParseNumber(id)
		if n != want.n || ok != want.ok {
			t.Fatalf("ParseNumber(%q) = %d, %v; want %d, %v", id, n, ok, want.n, want.ok)
		}
	}
}

func idsOf(fields []model.Field) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, field.ID)
	}
	return out
}
