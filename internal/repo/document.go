package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/models"
)

const documentViewColumns = `documents.id, documents.owner_id, users.name AS owner_name, users.email AS owner_email,
documents.stored_name, documents.original_name, documents.size_bytes, documents.mime_type,
documents.storage_path, documents.checksum, documents.uploaded_at`

func (r *GormRepo) CreateDocument(ctx context.Context, d *models.Document) error {
	return wrap(r.DB.WithContext(ctx).Create(d).Error, "document")
}

func (r *GormRepo) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var d models.Document
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, wrap(err, "document")
	}
	return &d, nil
}

func (r *GormRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if res.Error != nil {
		return wrap(res.Error, "document")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document not found: %w", common.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) ListDocumentsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.DocumentView, error) {
	return r.listDocumentViews(ctx, "documents.owner_id = ?", ownerID)
}

func (r *GormRepo) ListAllDocuments(ctx context.Context) ([]models.DocumentView, error) {
	return r.listDocumentViews(ctx, "")
}

func (r *GormRepo) listDocumentViews(ctx context.Context, where string, args ...any) ([]models.DocumentView, error) {
	q := r.DB.WithContext(ctx).
		Table("documents").
		Select(documentViewColumns).
		Joins("JOIN users ON users.id = documents.owner_id")
	if where != "" {
		q = q.Where(where, args...)
	}

	views := make([]models.DocumentView, 0)
	if err := q.Order("documents.uploaded_at DESC").Scan(&views).Error; err != nil {
		return nil, wrap(err, "document")
	}
	return views, nil
}
