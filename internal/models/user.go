package models

import (
	"time"
)

// DefaultTimezone is assumed for users without a stored preference.
const DefaultTimezone = "UTC"

// UserPreference holds per-user display settings.
// A missing row implies the UTC default; rows are created lazily on the
// first explicit timezone change.
type UserPreference struct {
	OwnerID   int64     `json:"owner_id"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
