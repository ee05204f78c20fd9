package tags

import (
	"fmt"
	"sort"
	"strings"
)

// SortMode selects how tags are ordered within a file.
type SortMode int

const (
	// Unsorted keeps emission order.
	Unsorted SortMode = 0
	// Sorted orders by line, then by byte-wise name.
	Sorted SortMode = 1
	// FoldCase orders by line, then by case-insensitive name.
	FoldCase SortMode = 2
)

// ParseSortMode validates a numeric sort mode.
func ParseSortMode(n int) (SortMode, error) {
	switch m := SortMode(n); m {
	case Unsorted, Sorted, FoldCase:
		return m, nil
	default:
		return Sorted, fmt.Errorf("invalid sort mode %d (want 0, 1 or 2)", n)
	}
}

func (m SortMode) String() string {
	switch m {
	case Unsorted:
		return "unsorted"
	case Sorted:
		return "sorted"
	case FoldCase:
		return "foldcase"
	default:
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
}

// Order sorts tags in place. The sort is stable, so tags with equal keys
// keep their emission order.
func Order(tags []Tag, mode SortMode) {
	switch mode {
	case Sorted:
		sort.SliceStable(tags, func(i, j int) bool {
			if tags[i].Line != tags[j].Line {
				return tags[i].Line < tags[j].Line
			}
			return tags[i].Name < tags[j].Name
		})
	case FoldCase:
		sort.SliceStable(tags, func(i, j int) bool {
			if tags[i].Line != tags[j].Line {
				return tags[i].Line < tags[j].Line
			}
			return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
		})
	}
}
