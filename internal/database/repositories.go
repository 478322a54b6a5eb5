package database

import (
	"taskline/internal/dialog"
)

// The dialogue controller consumes the repositories through its own
// interfaces; these assertions keep the two in sync at compile time.
var (
	_ dialog.TaskStore       = (*TaskRepository)(nil)
	_ dialog.PreferenceStore = (*UserRepository)(nil)
)
