package statuscache

import (
	"context"

	"guildboard-cli/internal/model"
)

// Resolve walks the requested category's fallback chain and returns the id of
// the first status whose category matches the first chain entry present in
// statuses. It is a pure function of its inputs and never touches the cache.
//
// Tie-break: when a project maps several statuses to one category, the first
// match in the given (server-returned) order wins. The backend does not
// promise that order is stable across fetches; we keep that ambiguity rather
// than inventing a position-based tie-break.
func Resolve(statuses []model.Status, category model.Category) (string, bool) {
	for _, want := range category.FallbackChain() {
		for _, st := range statuses {
			if st.Category == want {
				return st.ID, true
			}
		}
	}
	return "", false
}

// ResolveForCategory resolves against the project's full status set,
// upgrading the cache entry first when needed. A fetch failure degrades to
// resolution over whatever is cached; ok is false when no chain entry is
// present, and the caller must surface an error instead of proceeding.
func (c *Cache) ResolveForCategory(ctx context.Context, projectID string, category model.Category, tenantID string) (string, bool) {
	statuses, err := c.Ensure(ctx, projectID, tenantID)
	if err != nil {
		if cached, ok := c.GetCached(projectID); ok {
			statuses = cached.Statuses
		}
	}
	return Resolve(statuses, category)
}
