package usecases

import "sort"

// Selection is the set of subscriber ids the operator has marked.
// Membership survives pagination and filtering until cleared.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// ToggleAllOnPage removes every page id when the page is fully selected,
// otherwise adds them all. Ids from other pages are left alone.
func (s *Selection) ToggleAllOnPage(pageIDs []string) {
	if len(pageIDs) == 0 {
		return
	}
	if s.IsPageFullySelected(pageIDs) {
		for _, id := range pageIDs {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range pageIDs {
		s.ids[id] = struct{}{}
	}
}

// IsPageFullySelected is true iff the page is non-empty and every id on it
// is selected.
func (s *Selection) IsPageFullySelected(pageIDs []string) bool {
	if len(pageIDs) == 0 {
		return false
	}
	for _, id := range pageIDs {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// IDs returns the selected ids sorted.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
