package publish

import (
	"context"
	"fmt"

	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/publish/network"
)

// fakeClient records every call and answers from canned responses. Tests
// that need failures override the response fields per call counter.
type fakeClient struct {
	identity network.Identity

	sentRequests []network.Request
	sendFn       func(req network.Request) (*network.Response, error)

	photoUploads []network.PhotoUploadParams
	uploadErr    error

	sessionParams []network.VideoSessionParams
	session       *network.UploadSession
	sessionErr    error

	chunkCalls []chunkCall
	chunksErr  error

	profilePicPaths []string
}

type chunkCall struct {
	session     *network.UploadSession
	videoPath   string
	maxAttempts int
}

func okResponse() *network.Response {
	return &network.Response{StatusCode: 200, Status: "ok"}
}

func (c *fakeClient) Identity() network.Identity {
	return c.identity
}

func (c *fakeClient) Send(ctx context.Context, req network.Request) (*network.Response, error) {
	c.sentRequests = append(c.sentRequests, req)
	if c.sendFn != nil {
		return c.sendFn(req)
	}
	return okResponse(), nil
}

func (c *fakeClient) UploadPhoto(ctx context.Context, params network.PhotoUploadParams) (*network.Response, error) {
	c.photoUploads = append(c.photoUploads, params)
	if c.uploadErr != nil {
		return nil, c.uploadErr
	}
	return okResponse(), nil
}

func (c *fakeClient) RequestVideoUploadSession(ctx context.Context, params network.VideoSessionParams) (*network.UploadSession, error) {
	c.sessionParams = append(c.sessionParams, params)
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	if c.session != nil {
		return c.session, nil
	}
	return &network.UploadSession{UploadID: params.UploadID, URL: "https://upload.example.com", Job: "job-token"}, nil
}

func (c *fakeClient) UploadVideoChunks(ctx context.Context, session *network.UploadSession, videoPath string, maxAttempts int) error {
	c.chunkCalls = append(c.chunkCalls, chunkCall{session: session, videoPath: videoPath, maxAttempts: maxAttempts})
	return c.chunksErr
}

func (c *fakeClient) ChangeProfilePicture(ctx context.Context, photoPath string) (*network.Response, error) {
	c.profilePicPaths = append(c.profilePicPaths, photoPath)
	return okResponse(), nil
}

type fakeInspector struct {
	photoDescriptor media.AssetDescriptor
	photoErr        error
	videoDescriptor media.AssetDescriptor
	videoErr        error
	thumbnailPath   string
	thumbnailErr    error
}

func (i fakeInspector) InspectPhoto(path string) (media.AssetDescriptor, error) {
	if i.photoErr != nil {
		return media.AssetDescriptor{}, i.photoErr
	}
	descriptor := i.photoDescriptor
	descriptor.Path = path
	return descriptor, nil
}

func (i fakeInspector) InspectVideo(path string) (media.AssetDescriptor, error) {
	if i.videoErr != nil {
		return media.AssetDescriptor{}, i.videoErr
	}
	descriptor := i.videoDescriptor
	descriptor.Path = path
	return descriptor, nil
}

func (i fakeInspector) ExtractVideoThumbnail(path string) (string, error) {
	if i.thumbnailErr != nil {
		return "", i.thumbnailErr
	}
	return i.thumbnailPath, nil
}

// fakeIDGenerator hands out a deterministic sequence.
type fakeIDGenerator struct {
	counter int
}

func (g *fakeIDGenerator) Next() string {
	g.counter++
	return fmt.Sprintf("170000000000%d", g.counter)
}
