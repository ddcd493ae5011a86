package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pendingAt(groupID uuid.UUID, cid string, at time.Time) models.PendingBreakdown {
	return models.PendingBreakdown{CorrelationID: cid, GroupID: groupID, UserID: "u1", Topic: "topic " + cid, CreatedAt: at}
}

func TestPendingSet_MergeReplacesOnMatch(t *testing.T) {
	groupID := uuid.New()
	s := NewPendingSet(2 * time.Minute)
	s.Add(pendingAt(groupID, "c1", base))
	s.Add(pendingAt(groupID, "c2", base.Add(time.Second)))
	s.Add(pendingAt(uuid.New(), "other-group", base.Add(2*time.Second)))

	cid := "c1"
	persisted := []*models.Breakdown{{ID: uuid.New(), GroupID: &groupID, CorrelationID: &cid, Topic: "topic c1", CreatedAt: base.Add(3 * time.Second)}}

	feed := s.Merge(groupID, persisted)
	if len(feed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(feed))
	}
	if feed[0].Pending || *feed[0].CorrelationID != "c1" {
		t.Fatalf("expected persisted c1 first, got %+v", feed[0])
	}
	if !feed[1].Pending || *feed[1].CorrelationID != "c2" {
		t.Fatalf("expected pending c2 second, got %+v", feed[1])
	}
	if s.Len() != 2 {
		t.Fatalf("expected matched entry to be resolved, %d left", s.Len())
	}
}

func TestPendingSet_AddKeepsFirst(t *testing.T) {
	groupID := uuid.New()
	s := NewPendingSet(time.Minute)
	s.Add(pendingAt(groupID, "c1", base))
	s.Add(pendingAt(groupID, "c1", base.Add(time.Hour)))
	s.Add(models.PendingBreakdown{})

	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}
	if expired := s.Expire(base.Add(2 * time.Minute)); len(expired) != 1 {
		t.Fatalf("expected original timestamp to be kept")
	}
}

func TestPendingSet_ExpireAndResolve(t *testing.T) {
	groupID := uuid.New()
	s := NewPendingSet(2 * time.Minute)
	s.Add(pendingAt(groupID, "old", base))
	s.Add(pendingAt(groupID, "fresh", base.Add(90*time.Second)))

	expired := s.Expire(base.Add(150 * time.Second))
	if len(expired) != 1 || expired[0].CorrelationID != "old" {
		t.Fatalf("unexpected expired set %+v", expired)
	}
	if !s.Resolve(groupID, "fresh") || s.Resolve(groupID, "fresh") {
		t.Fatalf("expected resolve to succeed exactly once")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty set")
	}
}

func TestPendingSet_SameCorrelationAcrossGroups(t *testing.T) {
	groupA, groupB := uuid.New(), uuid.New()
	s := NewPendingSet(2 * time.Minute)
	s.Add(pendingAt(groupA, "shared", base))
	s.Add(pendingAt(groupB, "shared", base.Add(time.Second)))
	if s.Len() != 2 {
		t.Fatalf("expected both groups to keep an entry, got %d", s.Len())
	}

	cid := "shared"
	feed := s.Merge(groupA, []*models.Breakdown{{ID: uuid.New(), GroupID: &groupA, CorrelationID: &cid, CreatedAt: base.Add(time.Minute)}})
	if len(feed) != 1 || feed[0].Pending {
		t.Fatalf("expected only the persisted entry for group A, got %+v", feed)
	}

	feed = s.Merge(groupB, nil)
	if len(feed) != 1 || !feed[0].Pending || *feed[0].GroupID != groupB {
		t.Fatalf("expected group B to stay pending, got %+v", feed)
	}
	if s.Resolve(groupA, "shared") {
		t.Fatalf("group A entry should already be gone")
	}
	if !s.Resolve(groupB, "shared") {
		t.Fatalf("expected group B entry to resolve")
	}
}

func TestHubObserve(t *testing.T) {
	groupID := uuid.New()
	pending := NewPendingSet(time.Minute)
	h := NewHub(nil, nil, nil, pending, nil, logger.Nop())

	event := func(typ string, payload interface{}) []byte {
		data, _ := json.Marshal(models.WSMessage{Type: typ, GroupID: groupID, Payload: payload})
		return data
	}

	h.Observe(event(models.EventBreakdownPending, pendingAt(groupID, "c1", base)))
	h.Observe(event(models.EventBreakdownPending, pendingAt(groupID, "c2", base)))
	if pending.Len() != 2 {
		t.Fatalf("expected 2 pending, got %d", pending.Len())
	}

	cid := "c1"
	h.Observe(event(models.EventBreakdownPersisted, models.Breakdown{CorrelationID: &cid}))
	h.Observe(event(models.EventBreakdownFailed, models.BreakdownFailedEvent{CorrelationID: "c2"}))
	h.Observe([]byte("not json"))

	if pending.Len() != 0 {
		t.Fatalf("expected all resolved, got %d", pending.Len())
	}
}
