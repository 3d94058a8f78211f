package eventsvc

import (
	"context"

	"github.com/darasahq/darasa/core/fees"
)

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

var _ fees.Publisher = (*NoopPublisher)(nil)

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishFeeEvent(ctx context.Context, ev fees.Event) error { return nil }
