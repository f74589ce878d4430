// Package authz decides whether a resolved caller may perform an operation.
// Every check is synchronous and side-effect free; a nil user is an
// anonymous caller.
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/docshelf/internal/common"
	"github.com/Skotchmaster/docshelf/internal/models"
)

func RequireAuthenticated(u *models.User) (*models.User, error) {
	if u == nil {
		return nil, fmt.Errorf("Not authenticated: %w", common.ErrUnauthenticated)
	}
	return u, nil
}

// RequireRole fails with ErrUnauthenticated for anonymous callers and
// ErrForbidden for callers with another role.
func RequireRole(u *models.User, role models.Role) (*models.User, error) {
	if _, err := RequireAuthenticated(u); err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, fmt.Errorf("Unauthorized: %s access required: %w", role, common.ErrForbidden)
	}
	return u, nil
}

// RequireOwnerOrRole passes the resource owner or any caller holding role.
func RequireOwnerOrRole(u *models.User, ownerID uuid.UUID, role models.Role) (*models.User, error) {
	if _, err := RequireAuthenticated(u); err != nil {
		return nil, err
	}
	if u.ID != ownerID && u.Role != role {
		return nil, fmt.Errorf("Unauthorized: %w", common.ErrForbidden)
	}
	return u, nil
}

type Action int

const (
	ActionListOwnDocuments Action = iota
	ActionListAllDocuments
	ActionListUsers
	ActionUploadDocument
	ActionDeleteDocument
	ActionSearchDocuments
)

func (a Action) String() string {
	switch a {
	case ActionListOwnDocuments:
		return "list_own_documents"
	case ActionListAllDocuments:
		return "list_all_documents"
	case ActionListUsers:
		return "list_users"
	case ActionUploadDocument:
		return "upload_document"
	case ActionDeleteDocument:
		return "delete_document"
	case ActionSearchDocuments:
		return "search_documents"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Authorize applies the policy table. ownerID is only consulted for actions
// on an existing resource.
func Authorize(u *models.User, action Action, ownerID uuid.UUID) (*models.User, error) {
	switch action {
	case ActionListOwnDocuments, ActionUploadDocument:
		return RequireAuthenticated(u)
	case ActionListAllDocuments, ActionListUsers, ActionSearchDocuments:
		return RequireRole(u, models.RoleAdmin)
	case ActionDeleteDocument:
		return RequireOwnerOrRole(u, ownerID, models.RoleAdmin)
	}
	return nil, fmt.Errorf("unknown action %s: %w", action, common.ErrForbidden)
}
