package media

import "fmt"

// InvalidInputError signals a bad local file or parameter. It is always a
// local failure and is never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// PolicyViolationError signals media that the platform would reject
// (resolution, aspect ratio or duration outside the destination's limits).
// Raised before any network call.
type PolicyViolationError struct {
	Destination Destination
	Reason      string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("media not allowed for %s: %s", e.Destination, e.Reason)
}

// TransferFailedError signals that a chunk or single-shot upload did not
// complete within its attempt budget. Err carries the last transport error.
type TransferFailedError struct {
	Err error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("media transfer failed: %s", e.Err)
}

func (e *TransferFailedError) Unwrap() error {
	return e.Err
}

// ConfigureFailedError carries the raw server message of a rejected
// configure call. The message text is the only signal the server provides,
// so callers (and the retry loop) classify failures by inspecting it.
type ConfigureFailedError struct {
	Message string
}

func (e *ConfigureFailedError) Error() string {
	return fmt.Sprintf("configure rejected by server: %s", e.Message)
}
