package model

// AttemptState represents the state of the retry controller while it drives
// a download to completion.
type AttemptState string

const (
	// AttemptStateAttempting means an in-process download attempt is running
	AttemptStateAttempting AttemptState = "Attempting"

	// AttemptStateProxyRotating means a different proxy is being selected
	// before the next attempt
	AttemptStateProxyRotating AttemptState = "ProxyRotating"

	// AttemptStateSubprocessFallback means the extraction tool is being
	// invoked as a separate process
	AttemptStateSubprocessFallback AttemptState = "SubprocessFallback"

	// AttemptStateSucceeded means a concrete output file was produced
	AttemptStateSucceeded AttemptState = "Succeeded"

	// AttemptStateFailed means all attempts and fallbacks were exhausted
	AttemptStateFailed AttemptState = "Failed"
)

// String returns the string representation of AttemptState
func (as AttemptState) String() string {
	return string(as)
}

// IsTerminal returns true if the state ends the retry sequence
func (as AttemptState) IsTerminal() bool {
	return as == AttemptStateSucceeded || as == AttemptStateFailed
}
