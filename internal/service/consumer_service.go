package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-coparenting-be/internal/dto"
	"ai-coparenting-be/internal/pkg/mailer"
	"ai-coparenting-be/internal/repository/specification"
	"ai-coparenting-be/internal/repository/unitofwork"
	"ai-coparenting-be/pkg/events"
	pktNats "ai-coparenting-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the artifact-published topic: it emits a NATS
// event for downstream systems and mails the share link when the author
// asked for one. Both side effects are off the request path on purpose.
type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	natsPub      *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		uowFactory:   uowFactory,
		emailService: emailService,
		natsPub:      natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishArtifactMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing published artifact %s", payload.ArtifactId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	artifact, err := uow.ArtifactRepository().FindOne(ctx, specification.ByID{ID: payload.ArtifactId})
	if err != nil {
		log.Printf("[ERROR] Failed to get artifact %s: %v", payload.ArtifactId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if artifact == nil {
		log.Printf("[ERROR] Artifact not found: %s", payload.ArtifactId)
		msg.Ack() // Deleted in the meantime? Ack.
		return
	}

	if cs.natsPub != nil {
		event := events.BaseEvent{
			Type: "ARTIFACT_PUBLISHED",
			Data: map[string]interface{}{
				"artifact_id": artifact.Id.String(),
				"owner_id":    artifact.OwnerId.String(),
				"kind":        artifact.Kind,
				"share_url":   artifact.ShareURL,
			},
			OccurredAt: time.Now(),
		}
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish NATS event for artifact %s: %v", artifact.Id, err)
		}
	}

	if payload.NotifyEmail != "" && artifact.ShareURL != "" {
		if err := cs.emailService.NotifyPublished(payload.NotifyEmail, artifact.Title, artifact.ShareURL); err != nil {
			log.Printf("[ERROR] Failed to send publish notification for artifact %s: %v", artifact.Id, err)
			msg.Nack()
			return
		}
	}

	log.Printf("[SUCCESS] Artifact processed: %s", artifact.Id)
	msg.Ack()
}
