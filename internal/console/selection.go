package console

// Selection is the set of selected lead ids. It remembers insertion order so
// batch requests are deterministic. Filter changes never prune it.
type Selection struct {
	order []string
	set   map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{set: map[string]struct{}{}}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.set[id]; ok {
		delete(s.set, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.set[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.order)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.set = map[string]struct{}{}
}

// ToggleAll switches between empty and exactly the visible ids. When every
// visible id is already selected, and nothing else is, the selection clears.
func (s *Selection) ToggleAll(visible []string) {
	if len(visible) > 0 && s.equals(visible) {
		s.Clear()
		return
	}
	s.Clear()
	for _, id := range visible {
		if _, ok := s.set[id]; ok {
			continue
		}
		s.set[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

func (s *Selection) equals(ids []string) bool {
	seen := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := s.set[id]; !ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return len(seen) == len(s.set)
}
