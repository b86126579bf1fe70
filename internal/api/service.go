// Package api defines the backend boundary for the Guildboard server.
// The engine and all commands depend on Service; nothing outside this
// package speaks HTTP directly.
package api

import (
	"context"
	"errors"

	"guildboard-cli/internal/model"
)

var (
	ErrUnauthorized = errors.New("unauthorized; run `guildboard login` or check token.json")
	ErrForbidden    = errors.New("forbidden for the active guild")
	ErrNotFound     = errors.New("not found")
)

// Service is the conceptual contract the reconciliation engine depends on.
// Every call is scoped to a tenant id where the server requires one; an
// implementation must not fall back to ambient tenant state.
type Service interface {
	// ListTenants returns the guilds the authenticated user belongs to,
	// in server order.
	ListTenants(ctx context.Context) ([]model.Tenant, error)

	// ListProjects returns the projects visible in a tenant.
	ListProjects(ctx context.Context, tenantID string) ([]model.Project, error)

	// ListTasks returns tasks in a tenant. An empty projectID means all
	// projects ("my tasks" style views).
	ListTasks(ctx context.Context, tenantID, projectID string) ([]model.Task, error)

	// ListStatuses returns a project's full configured status pipeline in
	// server order. This order is the resolution tie-break order.
	ListStatuses(ctx context.Context, tenantID, projectID string) ([]model.Status, error)

	// UpdateTaskStatus patches a task's status. The returned task embeds
	// its resolved status record.
	UpdateTaskStatus(ctx context.Context, tenantID, taskID, statusID string) (model.Task, error)

	// SaveOrder persists a full custom ordering for a list scope.
	// Success means the ids in that order are now authoritative.
	SaveOrder(ctx context.Context, tenantID, scope string, orderedIDs []string) error

	// SwitchTenant changes the server-side active tenant; subsequent
	// requests must be scoped to the new tenant.
	SwitchTenant(ctx context.Context, tenantID string) error

	// GetDocument fetches a document including its markdown body.
	GetDocument(ctx context.Context, tenantID, documentID string) (model.Document, error)
}
