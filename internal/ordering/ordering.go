// Package ordering maintains client-local custom orderings of list items.
//
// A list splits into a pinned partition (never reorderable, shown first,
// newest pin on top) and an orderable remainder. The custom order is an id
// array kept per list scope; drag moves are applied optimistically and
// persisted in full, with rollback on failure and a settle step that always
// reconciles against the authoritative item set.
package ordering

import (
	"sort"
	"strings"
	"time"

	"guildboard-cli/internal/model"
)

// ProjectsScope names the custom-order scope of a guild's project list.
func ProjectsScope(guildID string) string { return "projects@" + guildID }

// TasksScope names the custom-order scope of a task list, per guild and,
// when filtered, per project.
func TasksScope(guildID, projectID string) string {
	if projectID == "" {
		return "tasks@" + guildID
	}
	return "tasks@" + guildID + "/" + projectID
}

// Item is the list-view projection of a project or task: just enough fields
// to partition and sort. Views over different entity kinds share the same
// ordering machinery through it.
type Item struct {
	ID           string
	Name         string
	PinnedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastViewedAt *time.Time
}

func FromProject(p model.Project) Item {
	return Item{
		ID:           p.ID,
		Name:         p.Name,
		PinnedAt:     p.PinnedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		LastViewedAt: p.LastViewedAt,
	}
}

func FromTask(t model.Task) Item {
	return Item{
		ID:           t.ID,
		Name:         t.Name,
		PinnedAt:     t.PinnedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		LastViewedAt: t.LastViewedAt,
	}
}

// Partition splits items into the pinned section and the orderable
// remainder. Pinned items sort by PinnedAt descending, ties by UpdatedAt
// descending; they are never part of the custom order.
func Partition(items []Item) (pinned, orderable []Item) {
	for _, it := range items {
		if it.PinnedAt != nil {
			pinned = append(pinned, it)
		} else {
			orderable = append(orderable, it)
		}
	}
	sort.SliceStable(pinned, func(i, j int) bool {
		if !pinned[i].PinnedAt.Equal(*pinned[j].PinnedAt) {
			return pinned[i].PinnedAt.After(*pinned[j].PinnedAt)
		}
		return pinned[i].UpdatedAt.After(pinned[j].UpdatedAt)
	})
	return pinned, orderable
}

// Sort projects the orderable items into display order for a mode. It never
// mutates its input.
//
// For SortCustom, items are ordered by their index in customOrder; ids
// missing from customOrder sort after all known entries, in input order, so
// newly-created items are visible before the first persisted reorder.
func Sort(orderable []Item, mode model.SortMode, customOrder []string) []Item {
	out := append([]Item{}, orderable...)
	switch mode {
	case model.SortCustom:
		idx := make(map[string]int, len(customOrder))
		for i, id := range customOrder {
			idx[id] = i
		}
		unknown := len(customOrder)
		sort.SliceStable(out, func(i, j int) bool {
			ii, iok := idx[out[i].ID]
			ji, jok := idx[out[j].ID]
			if !iok {
				ii = unknown
			}
			if !jok {
				ji = unknown
			}
			return ii < ji
		})
	case model.SortUpdated:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
	case model.SortCreated:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case model.SortAlphabetical:
		sort.SliceStable(out, func(i, j int) bool {
			a := strings.ToLower(out[i].Name)
			b := strings.ToLower(out[j].Name)
			if a != b {
				return a < b
			}
			return out[i].Name < out[j].Name
		})
	case model.SortRecentlyViewed:
		sort.SliceStable(out, func(i, j int) bool {
			a := viewTime(out[i])
			b := viewTime(out[j])
			if !a.Equal(b) {
				return a.After(b)
			}
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
	}
	return out
}

func viewTime(it Item) time.Time {
	if it.LastViewedAt != nil {
		return *it.LastViewedAt
	}
	return it.UpdatedAt
}

// Reconcile rebuilds a custom order against the authoritative item set:
// relative order of surviving ids is preserved, newly-observed ids append at
// the end, ids no longer present are dropped.
func Reconcile(previous, currentIDs []string) []string {
	current := make(map[string]bool, len(currentIDs))
	for _, id := range currentIDs {
		current[id] = true
	}
	out := make([]string, 0, len(currentIDs))
	seen := make(map[string]bool, len(currentIDs))
	for _, id := range previous {
		if current[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range currentIDs {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// ApplyMove returns the order produced by relocating movedID to targetID's
// position (standard array move). When either id is absent or they are
// equal, the input order is returned unchanged (as a copy).
func ApplyMove(order []string, movedID, targetID string) []string {
	out := append([]string{}, order...)
	if movedID == targetID {
		return out
	}
	from := indexOf(out, movedID)
	to := indexOf(out, targetID)
	if from < 0 || to < 0 {
		return out
	}
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{movedID}, out[to:]...)...)
	return out
}

// InsertRelative returns the order with movedID placed immediately before
// (or, with after set, immediately after) refID. Unknown ids and
// movedID == refID leave the order unchanged.
func InsertRelative(order []string, movedID, refID string, after bool) []string {
	out := append([]string{}, order...)
	if movedID == refID || indexOf(out, movedID) < 0 || indexOf(out, refID) < 0 {
		return out
	}
	from := indexOf(out, movedID)
	out = append(out[:from], out[from+1:]...)
	at := indexOf(out, refID)
	if after {
		at++
	}
	out = append(out[:at], append([]string{movedID}, out[at:]...)...)
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
