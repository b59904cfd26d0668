package state

import (
	"time"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Snapshot is the outcome of the most recent refreshes of one address.
type Snapshot struct {
	AddressID   string
	Schedule    *domain.Schedule // last successful result, kept across failures
	LastSuccess time.Time
	LastError   error
	LastUpdated time.Time
	Available   bool
}
