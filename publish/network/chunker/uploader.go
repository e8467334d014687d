package chunker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/pixelpost-io/go-mediapost/media"
)

// UploadParams describes one full chunked transfer.
type UploadParams struct {
	// URL is the server-issued upload target.
	URL string
	// SessionID is the upload id the chunks belong to.
	SessionID string
	// Job is the server-issued job token for this transfer.
	Job string
	// UserAgent is sent verbatim on every chunk request.
	UserAgent string
	// Data is the complete video byte stream.
	Data []byte
	// MaxAttempts is the attempt budget per range. Must be 1 or higher.
	MaxAttempts int
}

// Uploader sends the planned ranges one by one. Ranges are never sent in
// parallel: the server reassembles them by arrival position.
type Uploader struct {
	httpClient *http.Client
	logger     log.Logger
}

// NewUploader ...
func NewUploader(logger log.Logger) *Uploader {
	return &Uploader{
		httpClient: &http.Client{Timeout: 100 * time.Second},
		logger:     logger,
	}
}

// Upload transfers all ranges in order. A range whose transfer fails is
// resent until it succeeds or its attempt budget runs out; exhaustion on
// any range fails the whole transfer with the last transport error.
func (u *Uploader) Upload(ctx context.Context, params UploadParams) error {
	if params.MaxAttempts < 1 {
		return &media.InvalidInputError{Reason: "the maxAttempts parameter must be 1 or higher"}
	}

	ranges, err := Plan(int64(len(params.Data)))
	if err != nil {
		return &media.InvalidInputError{Reason: err.Error()}
	}

	for i, byteRange := range ranges {
		if err := u.uploadRange(ctx, params, i, byteRange); err != nil {
			return err
		}
	}

	u.logger.Debugf("All %d ranges transferred", len(ranges))
	return nil
}

func (u *Uploader) uploadRange(ctx context.Context, params UploadParams, index int, byteRange Range) error {
	var lastErr error

	for attempt := 1; attempt <= params.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return &media.TransferFailedError{Err: fmt.Errorf("range %d cancelled: %w", index, ctx.Err())}
		default:
		}

		u.logger.Debugf("Transferring range %d/%d, bytes %d-%d (attempt %d/%d)",
			index+1, NumRanges, byteRange.Start, byteRange.End-1, attempt, params.MaxAttempts)

		lastErr = u.postRange(ctx, params, byteRange)
		if lastErr == nil {
			return nil
		}
		u.logger.Warnf("Range %d attempt %d failed: %s", index, attempt, lastErr)
	}

	return &media.TransferFailedError{
		Err: fmt.Errorf("range %d failed after %d attempts: %w", index, params.MaxAttempts, lastErr),
	}
}

func (u *Uploader) postRange(ctx context.Context, params UploadParams, byteRange Range) error {
	chunk := params.Data[byteRange.Start:byteRange.End]

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, params.URL, bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// Positional framing: the absolute offsets and total size let the
	// server reassemble the ranges.
	req.Header.Set("User-Agent", params.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Cookie2", "$Version=1")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Session-ID", params.SessionID)
	req.Header.Set("Content-Disposition", `attachment; filename="video.mov"`)
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", byteRange.Start, byteRange.End-1, len(params.Data)))
	req.Header.Set("job", params.Job)
	req.ContentLength = byteRange.Size()

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			u.logger.Printf(err.Error())
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody := make([]byte, 1024)
		n, _ := io.ReadAtLeast(resp.Body, errorBody, 1)
		return fmt.Errorf("transfer failed with status %d: %s", resp.StatusCode, errorBody[:n])
	}

	return nil
}
