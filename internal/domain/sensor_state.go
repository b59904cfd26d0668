package domain

import (
	"fmt"
	"time"
)

// SensorState is one derived value published for an address and bin category.
type SensorState struct {
	AddressID   string
	CategoryKey string
	Name        string
	Icon        string
	Value       string // YYYY-MM-DD, empty when unknown
	Label       string // source label the value came from
	Available   bool
	AsOf        time.Time
}

func (s SensorState) Key() string {
	return fmt.Sprintf("%s|%s", s.AddressID, s.CategoryKey)
}

func (s SensorState) Render() string {
	value := s.Value
	if value == "" {
		value = "<unknown>"
	}
	return fmt.Sprintf("[%s/%s] %s -> %s (label=%q, available=%t)", s.AddressID, s.CategoryKey, s.Name, value, s.Label, s.Available)
}

// Equal compares everything except AsOf.
func (s SensorState) Equal(o SensorState) bool {
	return s.AddressID == o.AddressID &&
		s.CategoryKey == o.CategoryKey &&
		s.Name == o.Name &&
		s.Icon == o.Icon &&
		s.Value == o.Value &&
		s.Label == o.Label &&
		s.Available == o.Available
}
