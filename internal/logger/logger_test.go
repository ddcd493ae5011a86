package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"api_key", "abc", "chapters", 3, "invite_email", "a@b.c", "dangling"})

	want := []interface{}{"api_key", "[REDACTED]", "chapters", 3, "invite_email", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := Nop().With("service", "test")
	l.Info("hello", "token", "x")
	l.Sync()
}
