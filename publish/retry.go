package publish

import (
	"errors"
	"strings"

	"github.com/bitrise-io/go-utils/retry"
	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/publish/network"
)

// TransientConfigureMarker is the server's message when a freshly uploaded
// video is not processed yet and configure should simply be tried again.
// The server exposes no structured code for this condition, so the exact
// message text is matched; do not "fix" this.
const TransientConfigureMarker = "Transcode timeout"

// configureWithRetries calls configure up to maxAttempts times. Only
// failures carrying the transient marker are retried, after a fixed
// delay; every other failure, and budget exhaustion, propagates as-is.
func (p *Publisher) configureWithRetries(configure func() (*network.Response, error), maxAttempts int) (*network.Response, error) {
	if maxAttempts < 1 {
		return nil, &media.InvalidInputError{Reason: "the maxAttempts parameter must be 1 or higher"}
	}

	var resp *network.Response
	err := retry.Times(uint(maxAttempts-1)).Wait(p.ConfigureRetryDelay).TryWithAbort(func(attempt uint) (error, bool) {
		if attempt > 0 {
			p.logger.Infof("Retrying configure (attempt %d/%d)", attempt+1, maxAttempts)
		}

		var err error
		resp, err = configure()
		if err == nil {
			return nil, false
		}

		var configureErr *media.ConfigureFailedError
		if errors.As(err, &configureErr) && strings.Contains(configureErr.Message, TransientConfigureMarker) {
			p.logger.Warnf("Server is still processing the upload: %s", configureErr.Message)
			return err, false
		}

		return err, true
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
