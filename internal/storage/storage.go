// Package storage persists uploaded bytes behind a single Backend interface
// so upload handling does not depend on where the bytes end up.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

const (
	defaultExt = "bin"
	maxExtLen  = 16
)

var ErrInvalidName = errors.New("invalid storage name")

// Backend stores blobs under generated names. Put returns the locator
// recorded as the document's storage path; it must not return until the
// bytes are durable for that backend.
type Backend interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// SanitizeExt keeps only the ASCII letters and digits of the original
// extension, lowercased. It falls back to "bin".
func SanitizeExt(original string) string {
	ext := strings.TrimPrefix(filepath.Ext(original), ".")
	var b strings.Builder
	for _, r := range ext {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
		if b.Len() == maxExtLen {
			break
		}
	}
	if b.Len() == 0 {
		return defaultExt
	}
	return b.String()
}

// NewStoredName returns a random, time-ordered file name that keeps the
// sanitized extension of original.
func NewStoredName(original string) string {
	return strings.ToLower(ulid.Make().String()) + "." + SanitizeExt(original)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	return nil
}
