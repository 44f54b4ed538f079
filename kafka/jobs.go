package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/IBM/sarama"

	"storyreel/config"
	"storyreel/jobstore"
	"storyreel/state"
	"storyreel/types"
)

// JobRunner runs one job to completion.
type JobRunner interface {
	Run(ctx context.Context, req types.JobRequest, observers ...state.Observer) (types.JobStatus, error)
}

// NewJobHandler runs every valid JobRequest message. A job that fails is
// recorded in store and still marked; only a cancelled context leaves the
// message for redelivery.
func NewJobHandler(runner JobRunner, store jobstore.Store) *TypedMessageHandler[types.JobRequest] {
	return &TypedMessageHandler[types.JobRequest]{
		AlwaysMark: true,
		Validate: func(req *types.JobRequest) error {
			if strings.TrimSpace(req.Title) == "" {
				return types.ErrEmptyTitle
			}
			if strings.TrimSpace(req.Story) == "" && req.StoryURL == "" {
				return types.ErrEmptyStory
			}
			return nil
		},
		Process: func(ctx context.Context, req *types.JobRequest) error {
			var observers []state.Observer
			if store != nil {
				observers = append(observers, jobstore.Observer(store))
			}

			status, err := runner.Run(ctx, *req, observers...)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				log.Printf("❌ Job %s failed: %v", status.JobID, err)
				return nil
			}
			log.Printf("🎉 Job %s complete: %s", status.JobID, status.OutputPath)
			return nil
		},
	}
}

// Producer publishes job requests to the jobs topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer to cfg.Brokers.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	p, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewProducerFrom(p, cfg.Topic), nil
}

// NewProducerFrom wraps an existing producer.
func NewProducerFrom(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// Enqueue sends req keyed by its job id.
func (p *Producer) Enqueue(req types.JobRequest) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(req.ID),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", req.ID, err)
	}
	log.Printf("📤 Enqueued job %s (partition=%d, offset=%d)", req.ID, partition, offset)
	return nil
}

// Close flushes and closes the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
