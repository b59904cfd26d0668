package sensor

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Matcher decides which schedule labels belong to a category.
type Matcher struct {
	category Category
	aliases  map[string]struct{}
}

func NewMatcher(c Category) *Matcher {
	m := &Matcher{
		category: c,
		aliases:  make(map[string]struct{}, len(c.Aliases)),
	}
	for _, a := range c.Aliases {
		m.aliases[fold(a)] = struct{}{}
	}
	return m
}

// Match is true for an alias (case-insensitive, surrounding space ignored) or
// for any label containing the fallback digit. "21" therefore matches both bins.
func (m *Matcher) Match(label string) bool {
	if label == "" {
		return false
	}
	if _, ok := m.aliases[fold(label)]; ok {
		return true
	}
	return m.category.FallbackDigit != "" && strings.Contains(label, m.category.FallbackDigit)
}

// Value returns the first matching entry that carries a date.
func (m *Matcher) Value(s *domain.Schedule) (domain.ContainerDate, bool) {
	for _, cd := range s.Entries() {
		if m.Match(cd.Label) && cd.HasDate() {
			return cd, true
		}
	}
	return domain.ContainerDate{}, false
}

// Label returns the first matching label, dated or not.
func (m *Matcher) Label(s *domain.Schedule) (string, bool) {
	for _, label := range s.Labels() {
		if m.Match(label) {
			return label, true
		}
	}
	return "", false
}

// Derive builds the published state of every category for one address.
func Derive(addressID string, categories []Category, s *domain.Schedule, available bool, now time.Time) []*domain.SensorState {
	states := make([]*domain.SensorState, 0, len(categories))
	for _, c := range categories {
		m := NewMatcher(c)
		state := &domain.SensorState{
			AddressID:   addressID,
			CategoryKey: c.Key,
			Name:        c.Name,
			Icon:        c.Icon,
			Available:   available,
			AsOf:        now.Truncate(time.Second),
		}
		if cd, ok := m.Value(s); ok {
			state.Value = cd.ISODate()
		}
		if label, ok := m.Label(s); ok {
			state.Label = label
		}
		states = append(states, state)
	}
	return states
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
