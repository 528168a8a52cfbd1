package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/floorops/floorops-backend/pkg/config"
	"github.com/floorops/floorops-backend/pkg/db/models"
	"github.com/floorops/floorops-backend/pkg/logger"
	"github.com/floorops/floorops-backend/pkg/metrics"
	"github.com/floorops/floorops-backend/pkg/outbox"
)

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, cause error) error
}

type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// ServiceParams collects the publisher dependencies.
type ServiceParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Repo      outboxRepository
	Publisher publisher
	Metrics   *metrics.PublisherMetrics
}

// Service drains outbox_events into the domain topic. Rows that exhaust
// their attempts stay in the table with last_error set for inspection.
type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	repo      outboxRepository
	publisher publisher
	metrics   *metrics.PublisherMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &Service{
		cfg:       params.Config,
		logg:      params.Logger,
		repo:      params.Repo,
		publisher: params.Publisher,
		metrics:   params.Metrics,
	}, nil
}

// Run polls until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Outbox.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.processBatch(ctx); err != nil {
				s.logg.Error(ctx, "outbox batch failed", err)
			}
		}
	}
}

func (s *Service) processBatch(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.ObserveBatch(time.Since(start))
	}()

	events, err := s.repo.FetchUnpublished(s.cfg.Outbox.BatchSize, s.cfg.Outbox.MaxAttempts)
	if err != nil {
		return fmt.Errorf("fetching unpublished events: %w", err)
	}

	var errs []error
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.publishOne(ctx, event); err != nil {
			s.metrics.IncFailed(string(event.EventType))
			evCtx := s.logg.WithFields(ctx, s.eventFields(event))
			s.logg.Error(evCtx, "outbox publish failed", err)
			errs = append(errs, fmt.Errorf("event %s: %w", event.ID, err))
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				s.logg.Error(evCtx, "failed to record publish failure", markErr)
				errs = append(errs, markErr)
			}
			continue
		}
		s.metrics.IncPublished(string(event.EventType))
		if err := s.repo.MarkPublished(event.ID); err != nil {
			// The message is out; the row is retried next tick and the
			// consumer has to dedupe on event id.
			evCtx := s.logg.WithFields(ctx, s.eventFields(event))
			s.logg.Error(evCtx, "failed to mark event published", err)
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (s *Service) publishOne(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return fmt.Errorf("decoding payload envelope: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result := s.publisher.Publish(publishCtx, &pubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"event_id":       envelope.EventID,
		},
	})
	if result == nil {
		return errors.New("publisher returned no result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("awaiting publish result: %w", err)
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	return map[string]any{
		"event_id":       event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
}
