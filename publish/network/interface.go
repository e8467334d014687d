package network

import (
	"context"
	"encoding/json"

	"github.com/pixelpost-io/go-mediapost/media"
)

// Client is the transfer capability the publish package builds on. It owns
// every network concern: auth fields, signing, multipart framing, response
// decoding. One implementation exists per session, so independent workflow
// instances never share mutable state.
type Client interface {
	// Identity exposes the session identity fields the request payloads
	// embed. Read-only.
	Identity() Identity
	// Send performs one API request and decodes the response envelope.
	Send(ctx context.Context, req Request) (*Response, error)
	// UploadPhoto transfers the raw bytes of one photo (or video thumbnail).
	UploadPhoto(ctx context.Context, params PhotoUploadParams) (*Response, error)
	// RequestVideoUploadSession asks the server where to upload a video.
	RequestVideoUploadSession(ctx context.Context, params VideoSessionParams) (*UploadSession, error)
	// UploadVideoChunks transfers a video file against an upload session.
	UploadVideoChunks(ctx context.Context, session *UploadSession, videoPath string, maxAttempts int) error
	// ChangeProfilePicture replaces the account's profile photo.
	ChangeProfilePicture(ctx context.Context, photoPath string) (*Response, error)
}

// Identity carries the session identity values embedded into request
// payloads as the _uuid, _csrftoken and _uid fields.
type Identity struct {
	DeviceUUID string
	CSRFToken  string
	AccountID  string
}

// FileField is one binary part of a multipart request.
type FileField struct {
	Name     string
	FileName string
	MIMEType string
	Data     []byte
}

// Request describes one API call. Fields are sent form-urlencoded, or as
// multipart form-data when Files is non-empty. With SignBody set, all
// fields are folded into a single signed_body field.
type Request struct {
	Endpoint string
	Query    map[string]string
	Fields   map[string]string
	Files    []FileField
	SignBody bool
}

// Response is the decoded envelope of an API response. Raw keeps the full
// body for callers that need fields beyond the envelope.
type Response struct {
	StatusCode int
	Status     string
	Message    string
	Raw        json.RawMessage
}

// OK reports whether the server accepted the request.
func (r *Response) OK() bool {
	return r.Status == "ok"
}

// PhotoUploadParams ...
type PhotoUploadParams struct {
	UploadID    string
	Destination media.Destination
	PhotoPath   string
	// VideoThumbnail marks the photo as the poster frame of an album video,
	// which changes the advertised media type.
	VideoThumbnail bool
}

// VideoSessionParams ...
type VideoSessionParams struct {
	UploadID    string
	Destination media.Destination
	DurationMs  int64
	Width       int
	Height      int
}

// UploadSession holds the server-issued target of one video transfer. It
// lives from the session request until the final chunk succeeds or the
// transfer is abandoned.
type UploadSession struct {
	UploadID string
	URL      string
	Job      string
}
