package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/models"
)

func GroupChannel(groupID uuid.UUID) string {
	return "group_updates:" + groupID.String()
}

// Publisher sends group events over Redis pub/sub so every server instance
// can fan them out to its own sockets.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.redis.Publish(ctx, GroupChannel(msg.GroupID), data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}
	return nil
}
