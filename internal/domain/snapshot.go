package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the complete current article set plus the refresh bucket it was
// computed for. Replaced wholesale on refresh, never mutated in place, so
// concurrent readers always see a consistent value.
type Snapshot struct {
	Bucket    string    `json:"bucket"`
	Articles  []Article `json:"articles"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshLock is the mutual-exclusion row guarding a refresh. Absence of a
// non-expired row means the resource is free.
type RefreshLock struct {
	Name       string    `json:"name"`
	HolderID   uuid.UUID `json:"holderId"`
	AcquiredAt time.Time `json:"acquiredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the lock's TTL has elapsed. An expired lock is
// treated as absent; this is how a crashed holder recovers without manual
// intervention.
func (l RefreshLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
