// Package tenantctx tracks the active tenant ("guild") and guards
// cross-tenant actions: before mutating or navigating to an entity owned by
// another tenant, the tenant context is switched first, atomically from the
// user's perspective, with per-entity progress tracking and abort on failure.
package tenantctx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"guildboard-cli/internal/api"
	"guildboard-cli/internal/notify"
)

// Guard owns the process-wide tenant context. It is created at session start
// from the user's last-used or default tenant and torn down at logout; the
// in-flight set is only ever mutated through EnsureContext.
type Guard struct {
	svc      api.Service
	notifier notify.Notifier

	mu       sync.Mutex
	active   string
	names    map[string]string
	inFlight map[string]bool
}

func NewGuard(svc api.Service, notifier notify.Notifier, activeTenantID string) *Guard {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Guard{
		svc:      svc,
		notifier: notifier,
		active:   strings.TrimSpace(activeTenantID),
		names:    map[string]string{},
		inFlight: map[string]bool{},
	}
}

func (g *Guard) ActiveTenant() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// RememberTenantNames records display names so a failed switch can name the
// guild it was aiming for.
func (g *Guard) RememberTenantNames(tenants map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, name := range tenants {
		g.names[id] = name
	}
}

// SwitchInFlight reports whether a switch for this entity is pending; UIs
// use it for per-entity progress badges.
func (g *Guard) SwitchInFlight(entityID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight[entityID]
}

// EnsureContext makes sure the active tenant matches the entity's owner
// before the caller proceeds. Same-tenant (or unowned) entities return true
// immediately with no side effect. Otherwise a switch is issued; on success
// the active tenant is updated and the caller may proceed, on failure the
// caller must abort. A second call for an entity whose switch is already in
// flight is ignored and returns false.
func (g *Guard) EnsureContext(ctx context.Context, entityID, ownerTenantID string) bool {
	ownerTenantID = strings.TrimSpace(ownerTenantID)
	entityID = strings.TrimSpace(entityID)

	g.mu.Lock()
	if ownerTenantID == "" || ownerTenantID == g.active {
		g.mu.Unlock()
		return true
	}
	if g.inFlight[entityID] {
		g.mu.Unlock()
		return false
	}
	g.inFlight[entityID] = true
	g.mu.Unlock()

	err := g.svc.SwitchTenant(ctx, ownerTenantID)

	g.mu.Lock()
	delete(g.inFlight, entityID)
	if err == nil {
		g.active = ownerTenantID
	}
	name := g.names[ownerTenantID]
	g.mu.Unlock()

	if err != nil {
		if name != "" {
			g.notifier.Notify(notify.LevelError, fmt.Sprintf("could not switch to guild %q: %v", name, err))
		} else {
			g.notifier.Notify(notify.LevelError, fmt.Sprintf("could not switch guild: %v", err))
		}
		return false
	}
	return true
}

// Reset clears the context at logout.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = ""
	g.inFlight = map[string]bool{}
}
