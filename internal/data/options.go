package data

import (
	"time"

	"github.com/google/uuid"
)

// RepoOption customizes how a repository stamps new rows.
type RepoOption func(*repoOptions)

type repoOptions struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RepoOption {
	return func(o *repoOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the primary key generator (UUIDv4 by default).
func WithIDGenerator(newID func() string) RepoOption {
	return func(o *repoOptions) {
		if newID != nil {
			o.newID = newID
		}
	}
}

func applyRepoOptions(opts []RepoOption) repoOptions {
	o := repoOptions{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
