package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "wrapped validation", err: fmt.Errorf("No file uploaded: %w", ErrValidation), want: "No file uploaded"},
		{name: "bare not found", err: ErrNotFound, want: "not found"},
		{name: "wrapped conflict", err: fmt.Errorf("Email already registered: %w", ErrConflict), want: "Email already registered"},
		{name: "double wrapped", err: fmt.Errorf("service: %w", fmt.Errorf("Document not found: %w", ErrNotFound)), want: "service: Document not found"},
		{name: "internal", err: fmt.Errorf("db error: %w", errors.New("connection refused")), want: "Internal server error"},
		{name: "bare error", err: errors.New("boom"), want: "Internal server error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
