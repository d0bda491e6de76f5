package messaging

import (
	"context"

	"github.com/mintbay/registry/internal/domain"
)

// Publisher defines the interface for publishing registry events to the
// message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a registry event to the message broker
	PublishEvent(ctx context.Context, event *domain.Event) error
	// Close closes the connection
	Close()
}
