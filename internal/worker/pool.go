package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

const (
	GroupBreakdownQueue = "queue:group-breakdown"
	maxAttempts         = 3
	lockTTL             = 10 * time.Minute
	popTimeout          = 5 * time.Second
)

type breakdownGenerator interface {
	Generate(ctx context.Context, syllabus string, numQuestions int) (*services.GenerationReport, error)
}

type breakdownStore interface {
	Create(ctx context.Context, b *models.Breakdown) error
	FindByCorrelation(ctx context.Context, groupID uuid.UUID, correlationID string) (*models.Breakdown, error)
}

type messageStore interface {
	Create(ctx context.Context, m *models.GroupMessage) error
}

type eventPublisher interface {
	Publish(ctx context.Context, msg models.WSMessage) error
}

// Pool runs group breakdown jobs pulled from a Redis list.
type Pool struct {
	redis       *redis.Client
	pipeline    breakdownGenerator
	breakdowns  breakdownStore
	messages    messageStore
	publisher   eventPublisher
	log         *logger.Logger
	workerCount int
	retryBase   time.Duration
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	pipeline breakdownGenerator,
	breakdowns breakdownStore,
	messages messageStore,
	publisher eventPublisher,
	workerCount int,
	log *logger.Logger,
) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		pipeline:    pipeline,
		breakdowns:  breakdowns,
		messages:    messages,
		publisher:   publisher,
		log:         log.With("component", "worker"),
		workerCount: workerCount,
		retryBase:   time.Second,
		stopChan:    make(chan struct{}),
	}
}

// Enqueue appends a job to the tail of the group breakdown queue; workers pop from the head.
func (p *Pool) Enqueue(ctx context.Context, job *models.GroupBreakdownJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.redis.RPush(ctx, GroupBreakdownQueue, data).Err()
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Info("worker pool started", "workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Info("worker shutting down", "worker", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, popTimeout, GroupBreakdownQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				p.log.Warn("queue read failed", "worker", id, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.GroupBreakdownJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse job", "worker", id, "error", err)
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		p.log.Info("processing group breakdown", "worker", id, "job_id", job.ID.String(), "group_id", job.GroupID.String())

		if err := p.Process(ctx, &job); err != nil {
			p.handleFailure(ctx, &job, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// Process generates and stores one group breakdown. A job whose correlation id
// is already stored only re-announces the stored copy.
func (p *Pool) Process(ctx context.Context, job *models.GroupBreakdownJob) error {
	existing, err := p.breakdowns.FindByCorrelation(ctx, job.GroupID, job.CorrelationID)
	if err == nil {
		p.publish(ctx, job.GroupID, models.EventBreakdownPersisted, existing)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check existing breakdown: %w", err)
	}

	report, err := p.pipeline.Generate(ctx, job.Topic, job.NumQuestions)
	if err != nil {
		return err
	}

	groupID := job.GroupID
	correlationID := job.CorrelationID
	b := &models.Breakdown{
		UserID:          job.UserID,
		UserName:        job.UserName,
		GroupID:         &groupID,
		CorrelationID:   &correlationID,
		Topic:           job.Topic,
		SyllabusContent: job.Topic,
		Source:          report.Source,
		Chapters:        report.Chapters,
	}
	if err := p.breakdowns.Create(ctx, b); err != nil {
		return fmt.Errorf("save breakdown: %w", err)
	}
	p.publish(ctx, job.GroupID, models.EventBreakdownPersisted, b)

	topic := job.Topic
	msg := &models.GroupMessage{
		GroupID:  job.GroupID,
		UserID:   job.UserID,
		UserName: job.UserName,
		Content:  fmt.Sprintf("Generated new topic: %q with %d chapters", job.Topic, len(b.Chapters)),
		Type:     models.MessageTypeGeneratedContent,
		Topic:    &topic,
	}
	if err := p.messages.Create(ctx, msg); err != nil {
		// The breakdown is stored; a missing chat line is not worth a retry.
		p.log.Warn("failed to append generated-content message", "group_id", job.GroupID.String(), "error", err)
		return nil
	}
	p.publish(ctx, job.GroupID, models.EventMessageCreated, msg)

	p.log.Info("group breakdown stored", "job_id", job.ID.String(), "chapters", len(b.Chapters), "source", b.Source)
	return nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.GroupBreakdownJob, err error) {
	job.RetryCount++

	if !services.IsConfigError(err) && job.RetryCount < maxAttempts {
		backoff := p.retryBase * time.Duration(1<<uint(job.RetryCount))
		p.log.Warn("group breakdown failed, retrying", "job_id", job.ID.String(), "attempt", job.RetryCount, "backoff", backoff.String(), "error", err)
		retry := *job
		time.AfterFunc(backoff, func() {
			if err := p.Enqueue(context.Background(), &retry); err != nil {
				p.log.Error("failed to requeue job", "job_id", retry.ID.String(), "error", err)
			}
		})
		return
	}

	p.log.Error("group breakdown failed permanently", "job_id", job.ID.String(), "error", err)
	p.publish(ctx, job.GroupID, models.EventBreakdownFailed, models.BreakdownFailedEvent{
		CorrelationID: job.CorrelationID,
		ErrorMessage:  err.Error(),
	})
}

func (p *Pool) publish(ctx context.Context, groupID uuid.UUID, eventType string, payload interface{}) {
	err := p.publisher.Publish(ctx, models.WSMessage{Type: eventType, GroupID: groupID, Payload: payload})
	if err != nil {
		p.log.Warn("failed to publish event", "type", eventType, "group_id", groupID.String(), "error", err)
	}
}
