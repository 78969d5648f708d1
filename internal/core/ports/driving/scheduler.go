package driving

import "context"

// Scheduler runs periodic index builds in the background.
type Scheduler interface {
	// Start begins the schedule. It blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the schedule and waits for a running build to finish.
	Stop() error
}
