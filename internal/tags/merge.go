package tags

// Merge combines an existing table with sections produced by a new run.
// Existing sections keep their order, and one whose path was indexed again
// is replaced in place. Sections for new paths follow in the order given.
// Sections left without tags are dropped.
func Merge(existing, fresh *Table) *Table {
	byPath := make(map[string]int, len(fresh.Sections))
	for i, s := range fresh.Sections {
		byPath[s.Path] = i
	}

	out := &Table{}
	used := make(map[string]bool, len(fresh.Sections))
	for _, s := range existing.Sections {
		if i, ok := byPath[s.Path]; ok {
			if used[s.Path] {
				continue
			}
			used[s.Path] = true
			s = fresh.Sections[i]
		}
		if len(s.Tags) > 0 {
			out.Sections = append(out.Sections, s)
		}
	}
	for _, s := range fresh.Sections {
		if used[s.Path] {
			continue
		}
		used[s.Path] = true
		if len(s.Tags) > 0 {
			out.Sections = append(out.Sections, s)
		}
	}
	return out
}
