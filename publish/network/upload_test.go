package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelpost-io/go-mediapost/media"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestUploadPhoto_TimelineFields(t *testing.T) {
	photoData := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	photoPath := writeTempFile(t, "photo.jpg", photoData)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/upload/photo/", r.URL.Path)
		assert.Equal(t, "1700000000001", r.PostFormValue("upload_id"))
		assert.Equal(t, testDeviceUUID, r.PostFormValue("_uuid"))
		assert.Equal(t, "csrf-token", r.PostFormValue("_csrftoken"))
		assert.JSONEq(t, `{"lib_name":"jt","lib_version":"1.3.0","quality":"87"}`, r.PostFormValue("image_compression"))
		assert.Empty(t, r.PostFormValue("is_sidecar"))
		assert.Empty(t, r.PostFormValue("media_type"))

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "pending_media_1700000000001.jpg", header.Filename)
		sent, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, photoData, sent)

		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.UploadPhoto(context.Background(), PhotoUploadParams{
		UploadID:    "1700000000001",
		Destination: media.DestinationTimeline,
		PhotoPath:   photoPath,
	})

	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestUploadPhoto_AlbumFields(t *testing.T) {
	photoPath := writeTempFile(t, "photo.jpg", []byte{0xff, 0xd8})

	tests := []struct {
		name           string
		videoThumbnail bool
		wantMediaType  string
	}{
		{
			name: "album photo",
		},
		{
			name:           "album video thumbnail",
			videoThumbnail: true,
			wantMediaType:  "2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "1", r.PostFormValue("is_sidecar"))
				assert.Equal(t, tt.wantMediaType, r.PostFormValue("media_type"))
				_, _ = w.Write([]byte(`{"status":"ok"}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.UploadPhoto(context.Background(), PhotoUploadParams{
				UploadID:       "1700000000001",
				Destination:    media.DestinationAlbum,
				PhotoPath:      photoPath,
				VideoThumbnail: tt.videoThumbnail,
			})
			require.NoError(t, err)
		})
	}
}

func TestUploadPhoto_MissingFile(t *testing.T) {
	client := newTestClient("http://localhost")
	_, err := client.UploadPhoto(context.Background(), PhotoUploadParams{
		UploadID:    "1",
		Destination: media.DestinationTimeline,
		PhotoPath:   "/nonexistent/photo.jpg",
	})

	var transferErr *media.TransferFailedError
	require.ErrorAs(t, err, &transferErr)
}

func TestUploadPhoto_ServerRejection(t *testing.T) {
	photoPath := writeTempFile(t, "photo.jpg", []byte{0xff, 0xd8})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"media unfit"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.UploadPhoto(context.Background(), PhotoUploadParams{
		UploadID:    "1",
		Destination: media.DestinationTimeline,
		PhotoPath:   photoPath,
	})

	var transferErr *media.TransferFailedError
	require.ErrorAs(t, err, &transferErr)
	assert.Contains(t, err.Error(), "media unfit")
}

const videoSessionBody = `{
	"status": "ok",
	"video_upload_urls": [
		{"url": "https://upload-0.example.com", "job": "job-0"},
		{"url": "https://upload-1.example.com", "job": "job-1"},
		{"url": "https://upload-2.example.com", "job": "job-2"},
		{"url": "https://upload-3.example.com", "job": "job-3"}
	]
}`

func TestRequestVideoUploadSession_Timeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/upload/video/", r.URL.Path)
		assert.Equal(t, "2", r.PostFormValue("media_type"))
		assert.Equal(t, "12512", r.PostFormValue("upload_media_duration_ms"))
		assert.Equal(t, "720", r.PostFormValue("upload_media_width"))
		assert.Equal(t, "1280", r.PostFormValue("upload_media_height"))
		assert.Empty(t, r.PostFormValue("is_sidecar"))
		_, _ = w.Write([]byte(videoSessionBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	session, err := client.RequestVideoUploadSession(context.Background(), VideoSessionParams{
		UploadID:    "1700000000001",
		Destination: media.DestinationTimeline,
		DurationMs:  12512,
		Width:       720,
		Height:      1280,
	})

	require.NoError(t, err)
	assert.Equal(t, "1700000000001", session.UploadID)
	assert.Equal(t, "https://upload-3.example.com", session.URL)
	assert.Equal(t, "job-3", session.Job)
}

func TestRequestVideoUploadSession_Album(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.PostFormValue("is_sidecar"))
		assert.Empty(t, r.PostFormValue("media_type"))
		assert.Empty(t, r.PostFormValue("upload_media_duration_ms"))
		_, _ = w.Write([]byte(videoSessionBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RequestVideoUploadSession(context.Background(), VideoSessionParams{
		UploadID:    "1700000000001",
		Destination: media.DestinationAlbum,
	})
	require.NoError(t, err)
}

func TestRequestVideoUploadSession_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.PostFormValue("direct_v2"))
		assert.Equal(t, "0", r.PostFormValue("upload_media_width"))
		assert.Equal(t, "0", r.PostFormValue("upload_media_height"))
		assert.Equal(t, "false", r.PostFormValue("hflip"))
		assert.Equal(t, "0", r.PostFormValue("rotate"))

		var cropRect []int
		require.NoError(t, json.Unmarshal([]byte(r.PostFormValue("crop_rect")), &cropRect))
		require.Len(t, cropRect, 4)
		assert.GreaterOrEqual(t, cropRect[0], 0)
		assert.LessOrEqual(t, cropRect[0], 128)
		assert.GreaterOrEqual(t, cropRect[1], 0)
		assert.LessOrEqual(t, cropRect[1], 128)
		assert.Equal(t, cropRect[0]+640, cropRect[2])
		assert.Equal(t, cropRect[1]+480, cropRect[3])

		_, _ = w.Write([]byte(videoSessionBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RequestVideoUploadSession(context.Background(), VideoSessionParams{
		UploadID:    "1700000000001",
		Destination: media.DestinationDirect,
		DurationMs:  5000,
		Width:       640,
		Height:      480,
	})
	require.NoError(t, err)
}

func TestRequestVideoUploadSession_TooFewURLSlots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","video_upload_urls":[{"url":"u","job":"j"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RequestVideoUploadSession(context.Background(), VideoSessionParams{
		UploadID:    "1",
		Destination: media.DestinationTimeline,
		DurationMs:  5000,
		Width:       640,
		Height:      480,
	})

	var transferErr *media.TransferFailedError
	require.ErrorAs(t, err, &transferErr)
	assert.Contains(t, err.Error(), "URL slots")
}

func TestUploadVideoChunks_MissingFile(t *testing.T) {
	client := newTestClient("http://localhost")
	err := client.UploadVideoChunks(context.Background(), &UploadSession{
		UploadID: "1",
		URL:      "http://localhost",
		Job:      "j",
	}, "/nonexistent/video.mp4", 1)

	var transferErr *media.TransferFailedError
	require.ErrorAs(t, err, &transferErr)
}

func TestChangeProfilePicture(t *testing.T) {
	photoPath := writeTempFile(t, "avatar.jpg", []byte{0xff, 0xd8, 0x01, 0x02})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "/accounts/change_profile_picture/", r.URL.Path)

		// The identity fields travel inside the signed body.
		signedBody := r.PostFormValue("signed_body")
		require.NotEmpty(t, signedBody)
		var fields map[string]string
		require.NoError(t, json.Unmarshal([]byte(signedBody[64:]), &fields))
		assert.Equal(t, "csrf-token", fields["_csrftoken"])
		assert.Equal(t, "9876", fields["_uid"])

		file, _, err := r.FormFile("profile_pic")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		sent, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8, 0x01, 0x02}, sent)

		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.ChangeProfilePicture(context.Background(), photoPath)

	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestResponse_OK(t *testing.T) {
	assert.True(t, (&Response{Status: "ok"}).OK())
	assert.False(t, (&Response{Status: "fail"}).OK())
	assert.False(t, (&Response{}).OK())
}

func TestUploadPhoto_TransferErrorUnwraps(t *testing.T) {
	client := newTestClient("http://localhost")
	_, err := client.UploadPhoto(context.Background(), PhotoUploadParams{
		UploadID:    "1",
		Destination: media.DestinationTimeline,
		PhotoPath:   "/nonexistent/photo.jpg",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
