package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/authz"
	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/events"
	"github.com/Skotchmaster/docshelf/internal/logging"
	"github.com/Skotchmaster/docshelf/internal/metrics"
	"github.com/Skotchmaster/docshelf/internal/models"
	"github.com/Skotchmaster/docshelf/internal/search"
	"github.com/Skotchmaster/docshelf/internal/storage"
)

const (
	msgDocumentNotFound = "Document not found"
	msgQueryRequired    = "Query is required"
)

type DocumentRepo interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.DocumentView, error)
	ListAllDocuments(ctx context.Context) ([]models.DocumentView, error)
}

type DocumentService struct {
	Docs    DocumentRepo
	Backend storage.Backend
	Events  events.Publisher
	Index   search.Indexer
	Metrics *metrics.Metrics
}

// ListOwnedBy returns the caller's documents, newest first.
func (s *DocumentService) ListOwnedBy(ctx context.Context, caller *models.User) ([]models.DocumentView, error) {
	if _, err := authz.Authorize(caller, authz.ActionListOwnDocuments, uuid.Nil); err != nil {
		return nil, err
	}
	return s.Docs.ListDocumentsByOwner(ctx, caller.ID)
}

// ListAll returns every document annotated with its owner. Admin only.
func (s *DocumentService) ListAll(ctx context.Context, caller *models.User) ([]models.DocumentView, error) {
	if _, err := authz.Authorize(caller, authz.ActionListAllDocuments, uuid.Nil); err != nil {
		return nil, err
	}
	return s.Docs.ListAllDocuments(ctx)
}

// DeleteByID removes a document for its owner or an admin. The stored bytes
// are removed best-effort; the metadata delete decides success.
func (s *DocumentService) DeleteByID(ctx context.Context, caller *models.User, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "documents.delete")

	if _, err := authz.RequireAuthenticated(caller); err != nil {
		return err
	}

	doc, err := s.Docs.GetDocument(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%s: %w", msgDocumentNotFound, common.ErrNotFound)
	}
	if err != nil {
		l.Error("delete_document_error", "status", 500, "reason", "load document", "document_id", id, "error", err)
		return err
	}

	if _, err := authz.Authorize(caller, authz.ActionDeleteDocument, doc.OwnerID); err != nil {
		l.Warn("delete_document_forbidden", "status", 403, "document_id", id, "user_id", caller.ID)
		return err
	}

	if err := s.Backend.Delete(ctx, doc.StoredName); err != nil {
		s.Metrics.BlobDeleteFailed()
		l.Warn("blob_delete_failed", "document_id", id, "stored_name", doc.StoredName, "error", err)
	}

	if err := s.Docs.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%s: %w", msgDocumentNotFound, common.ErrNotFound)
		}
		l.Error("delete_document_error", "status", 500, "reason", "delete metadata", "document_id", id, "error", err)
		return err
	}
	s.Metrics.DocumentDeleted()

	events.PublishBestEffort(ctx, s.Events, events.TopicDocuments, id.String(), events.DocumentDeleted{
		Type:       events.TypeDocumentDeleted,
		DocumentID: id,
		OwnerID:    doc.OwnerID,
		DeletedBy:  caller.ID,
		At:         time.Now().UTC(),
	})
	unindexBestEffort(ctx, s.Index, id)

	l.Info("document_deleted", "document_id", id, "user_id", caller.ID)
	return nil
}

// Search runs a full-text query over document metadata. Admin only.
// page is 1-based; size is clamped by search.Page.
func (s *DocumentService) Search(ctx context.Context, caller *models.User, query string, page, size int) (int64, []models.DocumentView, error) {
	if _, err := authz.Authorize(caller, authz.ActionSearchDocuments, uuid.Nil); err != nil {
		return 0, nil, err
	}
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return 0, nil, fmt.Errorf("%s: %w", msgQueryRequired, common.ErrValidation)
	}
	if s.Index == nil {
		return 0, nil, search.ErrSearchDisabled
	}

	from, limit := search.Page(page, size)
	total, docs, err := s.Index.Search(ctx, q, from, limit)
	if err != nil && !errors.Is(err, search.ErrSearchDisabled) {
		logging.FromContext(ctx).Error("search_error", "status", 500, "error", err)
	}
	return total, docs, err
}
