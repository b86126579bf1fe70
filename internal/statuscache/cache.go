// Package statuscache maintains the per-project status pipeline cache and
// resolves abstract categories to concrete project statuses.
//
// Status lists are requested repeatedly (every time a status selector opens),
// so a project entry marked complete is served from memory until an explicit
// invalidation. Entries can also grow incidentally: any task loaded anywhere
// in the client carries an embedded status record that is merged in without
// marking the entry complete.
package statuscache

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"guildboard-cli/internal/api"
	"guildboard-cli/internal/model"
)

// Entry is the cached status set for one project. Complete reports whether
// the full pipeline has been fetched; incomplete entries hold only statuses
// observed incidentally.
type Entry struct {
	ProjectID string
	Statuses  []model.Status
	Complete  bool
}

// Cache is a process-wide store created at session start and dropped at
// logout. It is safe for concurrent use.
type Cache struct {
	svc api.Service

	mu      sync.Mutex
	entries map[string]*entry

	fetch singleflight.Group
}

type entry struct {
	statuses []model.Status
	byID     map[string]bool
	complete bool
}

func New(svc api.Service) *Cache {
	return &Cache{
		svc:     svc,
		entries: map[string]*entry{},
	}
}

// GetCached returns the current entry for a project without side effects.
// ok is false when nothing has been observed for the project yet.
func (c *Cache) GetCached(projectID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[strings.TrimSpace(projectID)]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		ProjectID: strings.TrimSpace(projectID),
		Statuses:  append([]model.Status{}, e.statuses...),
		Complete:  e.complete,
	}, true
}

// Observe merges a single status into its project's entry without marking it
// complete. Previously-seen ids are kept as-is; merges only append.
func (c *Cache) Observe(st model.Status) {
	if strings.TrimSpace(st.ID) == "" || strings.TrimSpace(st.ProjectID) == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeLocked(st.ProjectID, []model.Status{st}, false)
}

// ObserveTask merges a task's embedded status, if present. Call this for
// every task loaded anywhere so selector controls have a reasonable default
// before the full pipeline is fetched.
func (c *Cache) ObserveTask(t model.Task) {
	if t.Status == nil {
		return
	}
	c.Observe(*t.Status)
}

// Ensure returns the full status set for a project, fetching it at most
// once. A complete entry is served from memory. An empty tenantID means the
// fetch cannot be scoped, so whatever is cached is returned without a call.
// Concurrent calls for the same project share a single fetch.
func (c *Cache) Ensure(ctx context.Context, projectID, tenantID string) ([]model.Status, error) {
	projectID = strings.TrimSpace(projectID)

	c.mu.Lock()
	if e, ok := c.entries[projectID]; ok && e.complete {
		out := append([]model.Status{}, e.statuses...)
		c.mu.Unlock()
		return out, nil
	}
	if strings.TrimSpace(tenantID) == "" {
		var out []model.Status
		if e, ok := c.entries[projectID]; ok {
			out = append(out, e.statuses...)
		}
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	_, err, _ := c.fetch.Do(projectID, func() (any, error) {
		// Re-check: another caller may have completed the entry while we
		// waited for the flight slot.
		c.mu.Lock()
		if e, ok := c.entries[projectID]; ok && e.complete {
			c.mu.Unlock()
			return nil, nil
		}
		c.mu.Unlock()

		fetched, err := c.svc.ListStatuses(ctx, tenantID, projectID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.mergeLocked(projectID, fetched, true)
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		// The entry stays incomplete; callers degrade to the partial set.
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[projectID]; ok {
		return append([]model.Status{}, e.statuses...), nil
	}
	return nil, nil
}

// Invalidate drops a project's entry so the next Ensure refetches.
func (c *Cache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, strings.TrimSpace(projectID))
}

// mergeLocked appends previously-unseen ids; existing records win over
// incoming duplicates. Caller holds c.mu.
func (c *Cache) mergeLocked(projectID string, sts []model.Status, complete bool) {
	e, ok := c.entries[projectID]
	if !ok {
		e = &entry{byID: map[string]bool{}}
		c.entries[projectID] = e
	}
	for _, st := range sts {
		id := strings.TrimSpace(st.ID)
		if id == "" || e.byID[id] {
			continue
		}
		e.byID[id] = true
		e.statuses = append(e.statuses, st)
	}
	if complete {
		e.complete = true
	}
}
