// Package publish drives the upload-and-configure pipeline: probing a
// local photo or video, transferring its bytes and attaching the uploaded
// asset to a timeline, story or multi-item album.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/pixelpost-io/go-mediapost/device"
	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/probe"
	"github.com/pixelpost-io/go-mediapost/publish/network"
	"github.com/pixelpost-io/go-mediapost/uploadid"
)

// DefaultConfigureAttempts is the configure retry budget used by the
// single-video and album pipelines unless the caller overrides it.
const DefaultConfigureAttempts = 5

// Publisher runs media-publishing workflows against one session. Each
// workflow invocation is a sequence of blocking stages; nothing is shared
// across invocations except the injected collaborators.
type Publisher struct {
	client        network.Client
	inspector     probe.Inspector
	deviceProfile device.Profile
	idGen         uploadid.Generator
	pathModifier  pathutil.PathModifier
	pathChecker   pathutil.PathChecker
	logger        log.Logger

	// ConfigureRetryDelay is the pause between configure attempts when the
	// server is still processing an upload.
	ConfigureRetryDelay time.Duration

	timeNow func() time.Time
}

// NewPublisher ...
func NewPublisher(
	client network.Client,
	inspector probe.Inspector,
	deviceProfile device.Profile,
	idGen uploadid.Generator,
	pathModifier pathutil.PathModifier,
	pathChecker pathutil.PathChecker,
	logger log.Logger,
) *Publisher {
	return &Publisher{
		client:              client,
		inspector:           inspector,
		deviceProfile:       deviceProfile,
		idGen:               idGen,
		pathModifier:        pathModifier,
		pathChecker:         pathChecker,
		logger:              logger,
		ConfigureRetryDelay: 1 * time.Second,
		timeNow:             time.Now,
	}
}

// UploadSinglePhoto uploads one photo and attaches it to the user's
// timeline or story.
func (p *Publisher) UploadSinglePhoto(destination media.Destination, photoPath string, external ExternalMetadata) (*network.Response, error) {
	if destination != media.DestinationTimeline && destination != media.DestinationStory {
		return nil, &media.InvalidInputError{Reason: fmt.Sprintf("bad target destination %q", destination)}
	}

	descriptor, err := p.inspector.InspectPhoto(photoPath)
	if err != nil {
		return nil, err
	}
	if err := probe.Validate(destination, descriptor); err != nil {
		return nil, err
	}

	uploadID := p.idGen.Next()
	p.logger.Infof("Uploading photo %s to %s (upload id %s)", photoPath, destination, uploadID)
	if _, err := p.client.UploadPhoto(context.Background(), network.PhotoUploadParams{
		UploadID:    uploadID,
		Destination: destination,
		PhotoPath:   photoPath,
	}); err != nil {
		return nil, err
	}

	resp, err := p.configureSinglePhoto(destination, internalMetadata{uploadID: uploadID, descriptor: descriptor}, external)
	if err != nil {
		return nil, err
	}
	p.logger.Donef("Photo attached to %s", destination)

	return resp, nil
}

// UploadSingleVideo uploads one video in chunks, uploads its poster frame
// under the same upload id, and attaches it to the user's timeline or
// story. maxAttempts is the per-chunk transfer budget.
func (p *Publisher) UploadSingleVideo(destination media.Destination, videoPath string, external ExternalMetadata, maxAttempts int) (*network.Response, error) {
	if destination != media.DestinationTimeline && destination != media.DestinationStory {
		return nil, &media.InvalidInputError{Reason: fmt.Sprintf("bad target destination %q", destination)}
	}
	if maxAttempts < 1 {
		return nil, &media.InvalidInputError{Reason: "the maxAttempts parameter must be 1 or higher"}
	}

	// Probing first keeps invalid files from wasting a full transfer.
	descriptor, err := p.inspector.InspectVideo(videoPath)
	if err != nil {
		return nil, err
	}
	if err := probe.Validate(destination, descriptor); err != nil {
		return nil, err
	}

	uploadID := p.idGen.Next()
	p.logger.Infof("Uploading video %s to %s (upload id %s)", videoPath, destination, uploadID)

	session, err := p.client.RequestVideoUploadSession(context.Background(), network.VideoSessionParams{
		UploadID:    uploadID,
		Destination: destination,
		DurationMs:  descriptor.DurationMs,
		Width:       descriptor.Width,
		Height:      descriptor.Height,
	})
	if err != nil {
		return nil, err
	}

	if err := p.client.UploadVideoChunks(context.Background(), session, videoPath, maxAttempts); err != nil {
		return nil, err
	}

	// The poster frame reuses the video's upload id so the server pairs
	// the two.
	thumbnailPath, err := p.inspector.ExtractVideoThumbnail(videoPath)
	if err != nil {
		return nil, err
	}
	if _, err := p.client.UploadPhoto(context.Background(), network.PhotoUploadParams{
		UploadID:       uploadID,
		Destination:    destination,
		PhotoPath:      thumbnailPath,
		VideoThumbnail: true,
	}); err != nil {
		return nil, err
	}

	internal := internalMetadata{uploadID: uploadID, descriptor: descriptor}
	resp, err := p.configureWithRetries(func() (*network.Response, error) {
		return p.configureSingleVideo(destination, internal, external)
	}, DefaultConfigureAttempts)
	if err != nil {
		return nil, err
	}
	p.logger.Donef("Video attached to %s", destination)

	return resp, nil
}

// ChangeProfilePicture replaces the account's profile photo with a local
// image file.
func (p *Publisher) ChangeProfilePicture(photoPath string) (*network.Response, error) {
	if _, err := p.inspector.InspectPhoto(photoPath); err != nil {
		return nil, err
	}
	return p.client.ChangeProfilePicture(context.Background(), photoPath)
}
