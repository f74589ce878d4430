package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/docshelf/internal/db/dbtest"
	"github.com/Skotchmaster/docshelf/internal/metrics"
	"github.com/Skotchmaster/docshelf/internal/models"
	"github.com/Skotchmaster/docshelf/internal/repo"
	"github.com/Skotchmaster/docshelf/internal/search"
	"github.com/Skotchmaster/docshelf/internal/session"
)

type published struct {
	topic string
	key   string
	event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic, key, event})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeIndexer struct {
	indexed  []models.DocumentView
	deleted  []uuid.UUID
	results  []models.DocumentView
	lastFrom int
	lastSize int
}

func (f *fakeIndexer) IndexDocument(_ context.Context, d models.DocumentView) error {
	f.indexed = append(f.indexed, d)
	return nil
}

func (f *fakeIndexer) DeleteDocument(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, _ string, from, size int) (int64, []models.DocumentView, error) {
	f.lastFrom, f.lastSize = from, size
	return int64(len(f.results)), f.results, nil
}

var _ search.Indexer = (*fakeIndexer)(nil)

// memBackend keeps blobs in memory and can be told to fail.
type memBackend struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	puts      int
	putErr    error
	deleteErr error
}

func newMemBackend() *memBackend {
	return &memBackend{blobs: make(map[string][]byte)}
}

func (m *memBackend) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return "", m.putErr
	}
	m.blobs[name] = append([]byte(nil), data...)
	return "/uploads/" + name, nil
}

func (m *memBackend) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.blobs, name)
	return nil
}

func (m *memBackend) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[name]
	return ok
}

type env struct {
	repo     *repo.GormRepo
	sessions *session.Manager
	backend  *memBackend
	events   *fakePublisher
	index    *fakeIndexer
	metrics  *metrics.Metrics
	auth     *AuthService
	upload   *UploadService
	docs     *DocumentService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	r := repo.New(dbtest.Open(t))
	e := &env{
		repo:     r,
		sessions: session.NewManager(r, []byte("test-secret")),
		backend:  newMemBackend(),
		events:   &fakePublisher{},
		index:    &fakeIndexer{},
		metrics:  metrics.New(),
	}
	e.auth = &AuthService{Users: r, Sessions: e.sessions, Events: e.events}
	e.upload = &UploadService{Docs: r, Backend: e.backend, Events: e.events, Index: e.index, Metrics: e.metrics}
	e.docs = &DocumentService{Docs: r, Backend: e.backend, Events: e.events, Index: e.index, Metrics: e.metrics}
	return e
}

func (e *env) signup(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), SignupInput{Name: name, Email: email, Password: "secret", Role: string(role)})
	require.NoError(t, err)
	return res.User
}

func fileOf(name, contentType string, data []byte) *FileInput {
	return &FileInput{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// unopenable fails the test if validation lets it through to a read.
func unopenable(t *testing.T, name, contentType string, size int64) *FileInput {
	return &FileInput{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Open: func() (io.ReadCloser, error) {
			t.Errorf("file %s opened before validation passed", name)
			return nil, errors.New("unexpected open")
		},
	}
}
