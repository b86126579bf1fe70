package model

import (
	"fmt"
	"strings"
)

// SortMode selects how a list view orders its non-pinned items.
type SortMode string

const (
	SortCustom         SortMode = "custom"
	SortUpdated        SortMode = "updated"
	SortCreated        SortMode = "created"
	SortAlphabetical   SortMode = "alphabetical"
	SortRecentlyViewed SortMode = "recently_viewed"
)

func (m SortMode) IsValid() bool {
	switch m {
	case SortCustom, SortUpdated, SortCreated, SortAlphabetical, SortRecentlyViewed:
		return true
	default:
		return false
	}
}

func (m SortMode) String() string { return string(m) }

func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid sort mode: %q (want custom|updated|created|alphabetical|recently_viewed)", s)
	}
	return m, nil
}

// SortModes lists all modes in the order list views cycle through them.
var SortModes = []SortMode{SortCustom, SortUpdated, SortCreated, SortAlphabetical, SortRecentlyViewed}
