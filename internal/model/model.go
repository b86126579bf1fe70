package model

import "time"

// Tenant is an isolated organizational scope ("guild"). Every project, task
// and document belongs to exactly one tenant.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	OwnerTenantID string `json:"ownerTenantId"`

	PinnedAt *time.Time `json:"pinnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// LastViewedAt is client-local (maintained in the state cache), never
	// sent to the server.
	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`
}

// Status is a project-specific, named pipeline stage mapped to exactly one
// category. Position orders statuses for display only; it plays no part in
// category resolution.
type Status struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"projectId"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Position  int      `json:"position"`
}

type Task struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	Name          string `json:"name"`
	OwnerTenantID string `json:"ownerTenantId"`

	StatusID       string   `json:"statusId"`
	StatusCategory Category `json:"statusCategory"`

	// Status optionally embeds the full status record; PATCH responses
	// include it so callers can extend the status cache opportunistically.
	Status *Status `json:"status,omitempty"`

	PinnedAt *time.Time `json:"pinnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`
}

type Document struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	OwnerTenantID string    `json:"ownerTenantId"`
	Title         string    `json:"title"`
	Body          string    `json:"body"` // markdown
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
