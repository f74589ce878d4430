package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/events"
	"github.com/Skotchmaster/docshelf/internal/models"
	"github.com/Skotchmaster/docshelf/internal/repo"
)

func TestAllowedType(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/plain; charset=utf-8",
		"IMAGE/JPEG",
		"image/png",
		"image/gif",
	} {
		_, allowed := AllowedType(ok)
		assert.True(t, allowed, ok)
	}
	for _, bad := range []string{"application/zip", "text/html", "", "image/svg+xml", "application/octet-stream", ";;"} {
		_, allowed := AllowedType(bad)
		assert.False(t, allowed, bad)
	}

	mt, _ := AllowedType("Text/Plain; charset=utf-8")
	assert.Equal(t, "text/plain", mt)
}

func TestAccept_ReportScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.signup(t, "Sam Student", "sam@example.com", models.RoleStudent)
	admin := e.signup(t, "Ada Admin", "ada@example.com", models.RoleAdmin)

	data := bytes.Repeat([]byte{'x'}, 2*MiB)
	doc, err := e.upload.Accept(ctx, s, fileOf("report.pdf", "application/pdf", data))
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9a-z]{26}\.pdf$`, doc.StoredName)
	assert.EqualValues(t, 2097152, doc.SizeBytes)
	assert.Equal(t, s.ID, doc.OwnerID)
	assert.Equal(t, "report.pdf", doc.OriginalName)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, "/uploads/"+doc.StoredName, doc.StoragePath)
	assert.Equal(t, "Sam Student", doc.OwnerName)
	assert.Equal(t, "sam@example.com", doc.OwnerEmail)
	sum := blake3.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), doc.Checksum)
	assert.True(t, e.backend.has(doc.StoredName))

	mine, err := e.docs.ListOwnedBy(ctx, s)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, doc.ID, mine[0].ID)
	assert.Equal(t, doc.StoredName, mine[0].StoredName)
	assert.EqualValues(t, 2097152, mine[0].SizeBytes)
	assert.Equal(t, s.ID, mine[0].OwnerID)

	all, err := e.docs.ListAll(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Sam Student", all[0].OwnerName)
	assert.Equal(t, "sam@example.com", all[0].OwnerEmail)

	require.Len(t, e.index.indexed, 1)
	assert.Equal(t, doc.ID, e.index.indexed[0].ID)
	last := e.events.events[len(e.events.events)-1]
	assert.Equal(t, events.TopicDocuments, last.topic)
	assert.IsType(t, events.DocumentUploaded{}, last.event)
	expected := `
# HELP docshelf_documents_uploaded_total Documents accepted and stored.
# TYPE docshelf_documents_uploaded_total counter
docshelf_documents_uploaded_total 1
`
	require.NoError(t, testutil.GatherAndCompare(e.metrics.Registry, strings.NewReader(expected), "docshelf_documents_uploaded_total"))
}

func TestAccept_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)

	tests := []struct {
		name string
		file *FileInput
		msg  string
	}{
		{"missing file", nil, "No file uploaded"},
		{"11 MiB", unopenable(t, "big.pdf", "application/pdf", 11*MiB), "File size exceeds 10MB limit"},
		{"zip", unopenable(t, "a.zip", "application/zip", 10), "File type not allowed"},
		{"huge zip fails on size first", unopenable(t, "a.zip", "application/zip", 50*MiB), "File size exceeds 10MB limit"},
		{"empty content type", unopenable(t, "a.pdf", "", 10), "File type not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.upload.Accept(ctx, s, tt.file)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.msg, common.Message(err))
		})
	}

	assert.Zero(t, e.backend.puts)
	mine, err := e.docs.ListOwnedBy(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestAccept_BodyLongerThanDeclared(t *testing.T) {
	e := newEnv(t)
	e.upload.MaxBytes = 8
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)

	f := fileOf("a.txt", "text/plain", []byte("0123456789"))
	f.Size = 4
	_, err := e.upload.Accept(context.Background(), s, f)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "File size exceeds 8 bytes limit", common.Message(err))
	assert.Zero(t, e.backend.puts)
}

func TestAccept_Anonymous(t *testing.T) {
	e := newEnv(t)
	_, err := e.upload.Accept(context.Background(), nil, fileOf("a.txt", "text/plain", []byte("x")))
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Zero(t, e.backend.puts)
}

func TestAccept_StorageFailureWritesNoRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)
	e.backend.putErr = errors.New("disk full")

	_, err := e.upload.Accept(ctx, s, fileOf("a.txt", "text/plain", []byte("hello")))
	require.Error(t, err)
	assert.Equal(t, "Internal server error", common.Message(err))

	mine, err := e.docs.ListOwnedBy(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Empty(t, e.index.indexed)
}

type failingDocs struct{}

func (failingDocs) CreateDocument(context.Context, *models.Document) error {
	return errors.New("db error: connection reset")
}

func TestAccept_InsertFailureKeepsBlob(t *testing.T) {
	e := newEnv(t)
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)
	e.upload.Docs = failingDocs{}

	_, err := e.upload.Accept(context.Background(), s, fileOf("a.txt", "text/plain", []byte("hello")))
	require.Error(t, err)
	assert.Equal(t, 1, e.backend.puts)
	assert.Len(t, e.backend.blobs, 1)
	assert.Empty(t, e.index.indexed)
}

// lostAckDocs commits the row and then reports a failure, as when the
// connection drops after COMMIT.
type lostAckDocs struct{ r *repo.GormRepo }

func (d lostAckDocs) CreateDocument(ctx context.Context, doc *models.Document) error {
	if err := d.r.CreateDocument(ctx, doc); err != nil {
		return err
	}
	return errors.New("db error: connection reset after commit")
}

func TestAccept_CommittedRowNeverLosesBytes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)
	e.upload.Docs = lostAckDocs{r: e.repo}

	_, err := e.upload.Accept(ctx, s, fileOf("a.txt", "text/plain", []byte("hello")))
	require.Error(t, err)

	docs, err := e.repo.ListDocumentsByOwner(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, e.backend.has(docs[0].StoredName))
}

func TestAccept_ExtensionDefaults(t *testing.T) {
	e := newEnv(t)
	s := e.signup(t, "Sam", "sam@example.com", models.RoleStudent)

	doc, err := e.upload.Accept(context.Background(), s, fileOf("README", "text/plain", []byte("hi")))
	require.NoError(t, err)
	assert.Regexp(t, `\.bin$`, doc.StoredName)

	doc, err = e.upload.Accept(context.Background(), s, fileOf("photo.J-P_G", "image/jpeg", []byte("hi")))
	require.NoError(t, err)
	assert.Regexp(t, `\.jpg$`, doc.StoredName)
}
