package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studymate-backend/internal/models"
)

// PendingSet holds group breakdowns that were requested but not yet seen in
// storage. Correlation ids come from clients, so entries are keyed per group.
type PendingSet struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[pendingKey]models.PendingBreakdown
}

type pendingKey struct {
	groupID       uuid.UUID
	correlationID string
}

func NewPendingSet(ttl time.Duration) *PendingSet {
	return &PendingSet{ttl: ttl, entries: make(map[pendingKey]models.PendingBreakdown)}
}

// Add records a pending entry. Re-adding the same correlation id in the same
// group keeps the first entry.
func (s *PendingSet) Add(p models.PendingBreakdown) {
	if p.CorrelationID == "" {
		return
	}
	key := pendingKey{p.GroupID, p.CorrelationID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists {
		s.entries[key] = p
	}
}

// Resolve drops the group's pending entry once its persisted copy is observed.
func (s *PendingSet) Resolve(groupID uuid.UUID, correlationID string) bool {
	key := pendingKey{groupID, correlationID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Expire removes and returns entries older than the TTL.
func (s *PendingSet) Expire(now time.Time) []models.PendingBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []models.PendingBreakdown
	for id, p := range s.entries {
		if now.Sub(p.CreatedAt) > s.ttl {
			expired = append(expired, p)
			delete(s.entries, id)
		}
	}
	return expired
}

func (s *PendingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Merge builds a group's feed: every persisted breakdown plus pending entries
// whose correlation id has no persisted match, newest first. Matched pending
// entries are resolved as a side effect.
func (s *PendingSet) Merge(groupID uuid.UUID, persisted []*models.Breakdown) []models.BreakdownFeedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := make([]models.BreakdownFeedEntry, 0, len(persisted)+len(s.entries))
	for _, b := range persisted {
		if b.CorrelationID != nil {
			delete(s.entries, pendingKey{groupID, *b.CorrelationID})
		}
		feed = append(feed, models.BreakdownFeedEntry{Breakdown: *b})
	}

	for key, p := range s.entries {
		if key.groupID != groupID {
			continue
		}
		cid := p.CorrelationID
		gid := p.GroupID
		feed = append(feed, models.BreakdownFeedEntry{
			Breakdown: models.Breakdown{
				UserID:        p.UserID,
				UserName:      p.UserName,
				GroupID:       &gid,
				CorrelationID: &cid,
				Topic:         p.Topic,
				Chapters:      []models.Chapter{},
				CreatedAt:     p.CreatedAt,
			},
			Pending: true,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed
}
