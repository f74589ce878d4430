package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

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
	MiB             = 1 << 20
	DefaultMaxBytes = 10 * MiB

	msgNoFile          = "No file uploaded"
	msgTypeNotAllowed  = "File type not allowed"
	sideEffectDeadline = 5 * time.Second
)

var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"image/jpeg",
	"image/png",
	"image/gif",
}

// AllowedType reports whether the media type (parameters ignored) may be
// uploaded, and returns it normalized.
func AllowedType(contentType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	return mt, slices.Contains(allowedTypes, mt)
}

// FileInput describes one multipart file. Open is not called until the file
// has passed validation.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type DocumentWriter interface {
	CreateDocument(ctx context.Context, d *models.Document) error
}

type UploadService struct {
	Docs     DocumentWriter
	Backend  storage.Backend
	Events   events.Publisher
	Index    search.Indexer
	Metrics  *metrics.Metrics
	MaxBytes int64
	Now      func() time.Time
}

func (s *UploadService) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

func (s *UploadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func sizeLimitMessage(limit int64) string {
	if limit%MiB == 0 {
		return fmt.Sprintf("File size exceeds %dMB limit", limit/MiB)
	}
	return fmt.Sprintf("File size exceeds %d bytes limit", limit)
}

// validate applies the checks in order; the first failure wins.
func (s *UploadService) validate(f *FileInput) (string, error) {
	if f == nil || f.Open == nil {
		s.Metrics.UploadRejected(metrics.ReasonMissingFile)
		return "", fmt.Errorf("%s: %w", msgNoFile, common.ErrValidation)
	}
	if f.Size > s.maxBytes() {
		s.Metrics.UploadRejected(metrics.ReasonTooLarge)
		return "", fmt.Errorf("%s: %w", sizeLimitMessage(s.maxBytes()), common.ErrValidation)
	}
	mt, ok := AllowedType(f.ContentType)
	if !ok {
		s.Metrics.UploadRejected(metrics.ReasonBadType)
		return "", fmt.Errorf("%s: %w", msgTypeNotAllowed, common.ErrValidation)
	}
	return mt, nil
}

// Accept validates, stores and records an uploaded file for caller. Bytes are
// written before the metadata row, so a row never points at missing bytes. A
// failed insert leaves the blob in place: the insert may have committed.
func (s *UploadService) Accept(ctx context.Context, caller *models.User, f *FileInput) (*models.DocumentView, error) {
	l := logging.FromContext(ctx).With("svc", "upload.accept")

	if _, err := authz.Authorize(caller, authz.ActionUploadDocument, uuid.Nil); err != nil {
		return nil, err
	}
	mimeType, err := s.validate(f)
	if err != nil {
		l.Warn("upload_rejected", "status", 400, "reason", common.Message(err), "user_id", caller.ID)
		return nil, err
	}

	data, err := readAll(f, s.maxBytes())
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			s.Metrics.UploadRejected(metrics.ReasonTooLarge)
			return nil, err
		}
		l.Error("upload_error", "status", 500, "reason", "read upload", "error", err)
		return nil, err
	}

	sum := blake3.Sum256(data)
	storedName := storage.NewStoredName(f.Name)

	locator, err := s.Backend.Put(ctx, storedName, data, mimeType)
	if err != nil {
		l.Error("upload_error", "status", 500, "reason", "storage write", "stored_name", storedName, "error", err)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &models.Document{
		OwnerID:      caller.ID,
		StoredName:   storedName,
		OriginalName: f.Name,
		SizeBytes:    int64(len(data)),
		MimeType:     mimeType,
		StoragePath:  locator,
		Checksum:     hex.EncodeToString(sum[:]),
		UploadedAt:   s.now(),
	}
	if err := s.Docs.CreateDocument(ctx, doc); err != nil {
		l.Error("upload_error", "status", 500, "reason", "insert metadata", "stored_name", storedName, "error", err)
		l.Warn("orphan_blob", "stored_name", storedName, "locator", locator)
		return nil, err
	}

	s.Metrics.UploadAccepted(doc.SizeBytes)
	view := models.NewDocumentView(doc, caller)

	events.PublishBestEffort(ctx, s.Events, events.TopicDocuments, doc.ID.String(), events.DocumentUploaded{
		Type:         events.TypeDocumentUploaded,
		DocumentID:   doc.ID,
		OwnerID:      doc.OwnerID,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
		SizeBytes:    doc.SizeBytes,
		Checksum:     doc.Checksum,
		At:           doc.UploadedAt,
	})
	indexBestEffort(ctx, s.Index, view)

	l.Info("document_uploaded", "document_id", doc.ID, "user_id", caller.ID, "size", doc.SizeBytes, "mime", mimeType)
	return &view, nil
}

// readAll reads at most limit bytes; a body longer than its declared size is
// rejected like an oversized one.
func readAll(f *FileInput, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w", sizeLimitMessage(limit), common.ErrValidation)
	}
	return data, nil
}

func indexBestEffort(ctx context.Context, idx search.Indexer, view models.DocumentView) {
	if idx == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectDeadline)
	defer cancel()
	if err := idx.IndexDocument(ictx, view); err != nil {
		logging.FromContext(ctx).Error("index_document_failed", "document_id", view.ID, "error", err)
	}
}

func unindexBestEffort(ctx context.Context, idx search.Indexer, id uuid.UUID) {
	if idx == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectDeadline)
	defer cancel()
	if err := idx.DeleteDocument(ictx, id); err != nil {
		logging.FromContext(ctx).Error("unindex_document_failed", "document_id", id, "error", err)
	}
}
