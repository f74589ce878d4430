package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/logging"
)

const (
	TopicUsers     = "user_events"
	TopicDocuments = "document_events"

	TypeUserSignedUp     = "user_signed_up"
	TypeDocumentUploaded = "document_uploaded"
	TypeDocumentDeleted  = "document_deleted"

	publishTimeout = 5 * time.Second
)

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type UserSignedUp struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	At     time.Time `json:"at"`
}

type DocumentUploaded struct {
	Type         string    `json:"type"`
	DocumentID   uuid.UUID `json:"documentId"`
	OwnerID      uuid.UUID `json:"ownerId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Checksum     string    `json:"checksum"`
	At           time.Time `json:"at"`
}

type DocumentDeleted struct {
	Type       string    `json:"type"`
	DocumentID uuid.UUID `json:"documentId"`
	OwnerID    uuid.UUID `json:"ownerId"`
	DeletedBy  uuid.UUID `json:"deletedBy"`
	At         time.Time `json:"at"`
}

// PublishBestEffort sends event with its own deadline and only logs failures.
// The request that triggered it has already succeeded.
func PublishBestEffort(ctx context.Context, p Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishEvent(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}

type Noop struct{}

func (Noop) PublishEvent(context.Context, string, string, any) error { return nil }
func (Noop) Close() error                                          { return nil }
