package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned for an unparseable cron expression
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrJobLocked means another instance holds the job lock
	ErrJobLocked = errors.New("job is already running on another instance")
)
