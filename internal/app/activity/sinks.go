package activity

import (
	"context"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type repositorySink struct {
	name string
	repo interfaces.ActivityRepository
}

// RepositorySink stores every record through repo.
func RepositorySink(name string, repo interfaces.ActivityRepository) interfaces.ActivitySink {
	return &repositorySink{name: name, repo: repo}
}

func (s *repositorySink) Name() string { return s.name }

func (s *repositorySink) Write(ctx context.Context, rec *domain.ActivityRecord) error {
	return s.repo.Append(ctx, rec)
}

func (s *repositorySink) Close() error { return nil }

type publisherSink struct {
	publisher interfaces.EventPublisher
}

// PublisherSink broadcasts every record as an activity message.
func PublisherSink(p interfaces.EventPublisher) interfaces.ActivitySink {
	return &publisherSink{publisher: p}
}

func (s *publisherSink) Name() string { return "rabbitmq" }

func (s *publisherSink) Write(ctx context.Context, rec *domain.ActivityRecord) error {
	return s.publisher.PublishActivity(ctx, rec)
}

func (s *publisherSink) Close() error { return nil }
