package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// stateRecord is the JSON document stored per address and category.
type stateRecord struct {
	State         *string   `json:"state"` // YYYY-MM-DD or null
	Name          string    `json:"name"`
	Icon          string    `json:"icon,omitempty"`
	Label         string    `json:"label,omitempty"`
	Available     bool      `json:"available"`
	AsOf          time.Time `json:"as_of"`
	OwnerHostname string    `json:"owner_hostname"`
}

func marshalState(s *domain.SensorState, owner string) (string, error) {
	wire := stateRecord{
		Name:          s.Name,
		Icon:          s.Icon,
		Label:         s.Label,
		Available:     s.Available,
		AsOf:          s.AsOf,
		OwnerHostname: owner,
	}
	if s.Value != "" {
		v := s.Value
		wire.State = &v
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalState(addressID, category, raw string) (*domain.SensorState, error) {
	var wire stateRecord
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode state value: %w", err)
	}
	s := &domain.SensorState{
		AddressID:   addressID,
		CategoryKey: category,
		Name:        wire.Name,
		Icon:        wire.Icon,
		Label:       wire.Label,
		Available:   wire.Available,
		AsOf:        wire.AsOf,
	}
	if wire.State != nil {
		s.Value = *wire.State
	}
	return s, nil
}
