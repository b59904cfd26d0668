package domain

// Schedule maps bin labels to their next emptying. It keeps the order in which
// labels were first seen so that lookups by "first match" are deterministic.
type Schedule struct {
	order   []string
	byLabel map[string]ContainerDate
}

func NewSchedule() *Schedule {
	return &Schedule{
		byLabel: make(map[string]ContainerDate),
	}
}

// Set stores cd under its label. A repeated label overwrites the earlier
// value but keeps its original position.
func (s *Schedule) Set(cd ContainerDate) {
	if _, exists := s.byLabel[cd.Label]; !exists {
		s.order = append(s.order, cd.Label)
	}
	s.byLabel[cd.Label] = cd
}

func (s *Schedule) Get(label string) (ContainerDate, bool) {
	if s == nil {
		return ContainerDate{}, false
	}
	cd, ok := s.byLabel[label]
	return cd, ok
}

func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Labels returns labels in first-seen order.
func (s *Schedule) Labels() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Entries returns the dates in first-seen label order.
func (s *Schedule) Entries() []ContainerDate {
	if s == nil {
		return nil
	}
	out := make([]ContainerDate, 0, len(s.order))
	for _, label := range s.order {
		out = append(out, s.byLabel[label])
	}
	return out
}

