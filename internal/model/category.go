package model

import (
	"fmt"
	"strings"
)

// Category is the abstract task-lifecycle stage shared by every project.
// Each project maps its own statuses onto these categories; resolution from
// category to concrete status lives in internal/statuscache.
type Category string

const (
	CategoryBacklog    Category = "backlog"
	CategoryTodo       Category = "todo"
	CategoryInProgress Category = "in_progress"
	CategoryDone       Category = "done"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryBacklog, CategoryTodo, CategoryInProgress, CategoryDone:
		return true
	default:
		return false
	}
}

func (c Category) String() string { return string(c) }

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %q (want backlog|todo|in_progress|done)", s)
	}
	return c, nil
}

// FallbackChain returns the fixed ordered list of acceptable categories for a
// requested category, used when the exact category is absent from a project's
// configured pipeline. The chain always degrades toward earlier lifecycle
// stages and ends at backlog.
func (c Category) FallbackChain() []Category {
	switch c {
	case CategoryBacklog:
		return []Category{CategoryBacklog}
	case CategoryTodo:
		return []Category{CategoryTodo, CategoryBacklog}
	case CategoryInProgress:
		return []Category{CategoryInProgress, CategoryTodo, CategoryBacklog}
	case CategoryDone:
		return []Category{CategoryDone, CategoryInProgress, CategoryTodo, CategoryBacklog}
	default:
		return nil
	}
}
