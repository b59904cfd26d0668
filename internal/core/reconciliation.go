package core

import (
	"github.com/rs/zerolog"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Reconciliation is the registry work for one address.
type Reconciliation struct {
	Changed   []*domain.SensorState // new or different value/attributes
	Unchanged []*domain.SensorState // republished to move as_of forward
	Stale     []*domain.SensorState // stored categories that are no longer derived
}

// Reconcile compares the derived states with what the registry holds.
func Reconcile(desired, actual []*domain.SensorState, logger zerolog.Logger) Reconciliation {
	actualByKey := make(map[string]*domain.SensorState, len(actual))
	for _, a := range actual {
		actualByKey[a.Key()] = a
	}

	var r Reconciliation
	desiredKeys := make(map[string]struct{}, len(desired))
	for _, d := range desired {
		desiredKeys[d.Key()] = struct{}{}
		existing, ok := actualByKey[d.Key()]
		switch {
		case !ok:
			logger.Debug().Msgf("[reconciler] New state %s", d.Render())
			r.Changed = append(r.Changed, d)
		case !existing.Equal(*d):
			logger.Debug().Msgf("[reconciler] Changed state %s (was %s)", d.Render(), existing.Render())
			r.Changed = append(r.Changed, d)
		default:
			r.Unchanged = append(r.Unchanged, d)
		}
	}

	for _, a := range actual {
		if _, ok := desiredKeys[a.Key()]; !ok {
			logger.Debug().Msgf("[reconciler] Stale state %s", a.Render())
			r.Stale = append(r.Stale, a)
		}
	}
	return r
}
