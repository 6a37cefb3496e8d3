package history

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestLog_AppendAddsOrderedPairWithSharedTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	log := NewLog(WithClock(clock.Now))

	log.Append("add email", `{"fields":[]}`)
	clock.Advance(time.Minute)
	log.Append("add email", `{"fields":[]}`)

	entries := log.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].Role != RoleUser || entries[1].Role != RoleAssistant {
		t.Fatalf("unexpected roles: %#v", entries[:2])
	}
	if !entries[0].Timestamp.Equal(entries[1].Timestamp) {
		t.Fatalf("pair timestamps differ: %v vs %v", entries[0].Timestamp, entries[1].Timestamp)
	}
	if !entries[2].Timestamp.After(entries[1].Timestamp) {
		t.Fatalf("expected second pair to be later")
	}
	if !log.UpdatedAt().Equal(clock.now) {
		t.Fatalf("expected updatedAt to follow the last append")
	}
}

func TestLog_MessagesOmitTimestamps(t *testing.T) {
	log := NewLog()
	log.Append("add phone", `{"fields":[{"name":"phoneNumber"}]}`)

	want := []Message{
		{Role: RoleUser, Content: "add phone"},
		{Role: RoleAssistant, Content: `{"fields":[{"name":"phoneNumber"}]}`},
	}
	if diff := cmp.Diff(want, log.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestLog_UserEntriesAndClear(t *testing.T) {
	log := NewLog()
	log.Append("one", "a")
	log.Append("two", "b")

	users := log.UserEntries()
	if len(users) != 2 || users[0].Content != "one" || users[1].Content != "two" {
		t.Fatalf("unexpected user entries: %#v", users)
	}

	log.Clear()
	if log.Len() != 0 || len(log.Messages()) != 0 {
		t.Fatalf("expected empty log after clear")
	}
}

func TestLog_EntriesReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append("one", "a")

	entries := log.Entries()
	entries[0].Content = "mutated"
	if log.Entries()[0].Content != "one" {
		t.Fatalf("caller mutation leaked into the log")
	}
}
