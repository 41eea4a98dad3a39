package commands

import (
	"context"

	"github.com/google/uuid"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	sharedDomain "github.com/moyeolab/moyeo/internal/shared/domain"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
)

// saveEventsToOutbox drains an aggregate's domain events into the outbox
// within the current transaction, stamping them with command metadata.
func saveEventsToOutbox(ctx context.Context, outboxRepo outbox.Repository, aggregate sharedDomain.AggregateRoot, userID uuid.UUID) error {
	events := aggregate.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(userID))

	msgs := make([]*outbox.Message, 0, len(events))
	for _, event := range events {
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	aggregate.ClearDomainEvents()
	return nil
}
