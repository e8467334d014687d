package network

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/docker/go-units"
	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/publish/network/chunker"
)

// imageCompression advertises the client-side compressor. The value is a
// fixed part of the wire contract.
const imageCompression = `{"lib_name":"jt","lib_version":"1.3.0","quality":"87"}`

// UploadPhoto transfers the raw bytes of one photo in a single multipart
// request and associates them with params.UploadID.
func (c *apiClient) UploadPhoto(ctx context.Context, params PhotoUploadParams) (*Response, error) {
	data, err := os.ReadFile(params.PhotoPath)
	if err != nil {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("read photo file: %w", err)}
	}

	fields := map[string]string{
		"upload_id":         params.UploadID,
		"_uuid":             c.session.DeviceUUID,
		"_csrftoken":        c.session.CSRFToken,
		"image_compression": imageCompression,
	}
	if params.Destination == media.DestinationAlbum {
		fields["is_sidecar"] = "1"
		if params.VideoThumbnail {
			fields["media_type"] = "2"
		}
	}

	c.logger.Debugf("Uploading photo %s (%s)", params.PhotoPath, units.HumanSizeWithPrecision(float64(len(data)), 3))

	resp, err := c.Send(ctx, Request{
		Endpoint: "upload/photo/",
		Fields:   fields,
		Files: []FileField{
			{
				Name:     "photo",
				FileName: "pending_media_" + c.idGen.Next() + ".jpg",
				MIMEType: "application/octet-stream",
				Data:     data,
			},
		},
	})
	if err != nil {
		return nil, &media.TransferFailedError{Err: err}
	}
	if !resp.OK() {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("server rejected photo upload: %s", resp.Message)}
	}

	return resp, nil
}

type videoUploadURL struct {
	URL string `json:"url"`
	Job string `json:"job"`
}

type videoSessionResponse struct {
	VideoUploadURLs []videoUploadURL `json:"video_upload_urls"`
}

// RequestVideoUploadSession submits the upload-session parameters for a new
// video and returns the server-issued upload target.
func (c *apiClient) RequestVideoUploadSession(ctx context.Context, params VideoSessionParams) (*UploadSession, error) {
	fields := map[string]string{
		"upload_id":  params.UploadID,
		"_csrftoken": c.session.CSRFToken,
		"_uuid":      c.session.DeviceUUID,
	}

	if params.Destination == media.DestinationAlbum {
		fields["is_sidecar"] = "1"
	} else {
		fields["media_type"] = "2"
		fields["upload_media_duration_ms"] = strconv.FormatInt(params.DurationMs, 10)
		fields["upload_media_width"] = strconv.Itoa(params.Width)
		fields["upload_media_height"] = strconv.Itoa(params.Height)

		if params.Destination == media.DestinationDirect {
			// The direct-message variant wants a randomized crop rectangle
			// and zeroed upload dimensions. Compatibility behavior of the
			// platform, not a choice made here.
			cropX := rand.Intn(129)
			cropY := rand.Intn(129)
			cropRect, err := json.Marshal([]int{cropX, cropY, cropX + params.Width, cropY + params.Height})
			if err != nil {
				return nil, err
			}
			fields["upload_media_width"] = "0"
			fields["upload_media_height"] = "0"
			fields["direct_v2"] = "1"
			fields["hflip"] = "false"
			fields["rotate"] = "0"
			fields["crop_rect"] = string(cropRect)
		}
	}

	resp, err := c.Send(ctx, Request{Endpoint: "upload/video/", Fields: fields})
	if err != nil {
		return nil, &media.TransferFailedError{Err: err}
	}
	if !resp.OK() {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("server rejected upload session request: %s", resp.Message)}
	}

	var session videoSessionResponse
	if err := json.Unmarshal(resp.Raw, &session); err != nil {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("decode upload session response: %w", err)}
	}
	// The server offers several URL slots; the last one is the upload
	// target the mobile clients use.
	if len(session.VideoUploadURLs) < 4 {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("upload session response has %d URL slots, want 4", len(session.VideoUploadURLs))}
	}
	slot := session.VideoUploadURLs[3]

	return &UploadSession{
		UploadID: params.UploadID,
		URL:      slot.URL,
		Job:      slot.Job,
	}, nil
}

// UploadVideoChunks reads the whole video file and transfers it in ordered
// byte ranges against the session's upload URL.
func (c *apiClient) UploadVideoChunks(ctx context.Context, session *UploadSession, videoPath string, maxAttempts int) error {
	data, err := os.ReadFile(videoPath)
	if err != nil {
		return &media.TransferFailedError{Err: fmt.Errorf("read video file: %w", err)}
	}

	c.logger.Infof("Uploading video %s (%s)", videoPath, units.HumanSizeWithPrecision(float64(len(data)), 3))

	uploader := chunker.NewUploader(c.logger)
	return uploader.Upload(ctx, chunker.UploadParams{
		URL:         session.URL,
		SessionID:   session.UploadID,
		Job:         session.Job,
		UserAgent:   c.session.UserAgent,
		Data:        data,
		MaxAttempts: maxAttempts,
	})
}

// ChangeProfilePicture replaces the account's profile photo. The endpoint
// demands a signed body around the identity fields.
func (c *apiClient) ChangeProfilePicture(ctx context.Context, photoPath string) (*Response, error) {
	data, err := os.ReadFile(photoPath)
	if err != nil {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("read photo file: %w", err)}
	}

	resp, err := c.Send(ctx, Request{
		Endpoint: "accounts/change_profile_picture/",
		Fields: map[string]string{
			"_csrftoken": c.session.CSRFToken,
			"_uuid":      c.session.DeviceUUID,
			"_uid":       c.session.AccountID,
		},
		Files: []FileField{
			{
				Name:     "profile_pic",
				FileName: "profile_pic",
				MIMEType: "application/octet-stream",
				Data:     data,
			},
		},
		SignBody: true,
	})
	if err != nil {
		return nil, &media.TransferFailedError{Err: err}
	}
	if !resp.OK() {
		return nil, &media.TransferFailedError{Err: fmt.Errorf("server rejected profile picture: %s", resp.Message)}
	}

	return resp, nil
}
