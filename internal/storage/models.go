package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Preference is one persisted preference row.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// MigrationRun records one execution of the project migration tool.
type MigrationRun struct {
	ID           string
	Root         string
	BackupPath   string
	UpdatedFiles int
	Status       string // "completed", "failed", "dry_run"
	CreatedAt    time.Time
}
