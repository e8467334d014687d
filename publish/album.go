package publish

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/publish/network"
)

// Per-item album configuration shapes. Photos and videos carry different
// field sets; both embed a shared capture timestamp computed once for the
// whole album.

type albumPhotoEdits struct {
	FilterStrength int    `json:"filter_strength"`
	FilterName     string `json:"filter_name"`
}

type albumPhotoConfig struct {
	DateTimeOriginal  string          `json:"date_time_original"`
	SceneType         int             `json:"scene_type"`
	DisableComments   bool            `json:"disable_comments"`
	UploadID          string          `json:"upload_id"`
	SourceType        int             `json:"source_type"`
	SceneCaptureType  string          `json:"scene_capture_type"`
	DateTimeDigitized string          `json:"date_time_digitized"`
	GeotagEnabled     bool            `json:"geotag_enabled"`
	CameraPosition    string          `json:"camera_position"`
	Edits             albumPhotoEdits `json:"edits"`
	Usertags          string          `json:"usertags,omitempty"`
}

type albumVideoEdits struct {
	Length         float64 `json:"length"`
	Cinema         string  `json:"cinema"`
	OriginalLength float64 `json:"original_length"`
	SourceType     string  `json:"source_type"`
	StartTime      int     `json:"start_time"`
	CameraPosition string  `json:"camera_position"`
	TrimType       int     `json:"trim_type"`
}

type albumVideoConfig struct {
	Length           float64         `json:"length"`
	DateTimeOriginal string          `json:"date_time_original"`
	SceneType        int             `json:"scene_type"`
	PosterFrameIndex int             `json:"poster_frame_index"`
	TrimType         int             `json:"trim_type"`
	DisableComments  bool            `json:"disable_comments"`
	UploadID         string          `json:"upload_id"`
	SourceType       string          `json:"source_type"`
	GeotagEnabled    bool            `json:"geotag_enabled"`
	Edits            albumVideoEdits `json:"edits"`
}

// ConfigureTimelineAlbum merges already-uploaded items into one multi-item
// timeline post. Child order in the request matches the input order, and
// exactly one network call is made for the whole album.
func (p *Publisher) ConfigureTimelineAlbum(items []AlbumItem, external ExternalMetadata) (*network.Response, error) {
	if len(items) == 0 {
		return nil, &media.InvalidInputError{Reason: "an album needs at least one item"}
	}

	children, err := p.buildChildrenMetadata(items)
	if err != nil {
		return nil, err
	}
	encodedChildren, err := json.Marshal(children)
	if err != nil {
		return nil, err
	}

	identity := p.client.Identity()
	fields := map[string]string{
		"_csrftoken":        identity.CSRFToken,
		"_uid":              identity.AccountID,
		"_uuid":             identity.DeviceUUID,
		"client_sidecar_id": p.idGen.Next(),
		"caption":           captionText(external.Caption),
		"children_metadata": string(encodedChildren),
	}

	// One shared location for the whole album, never per item.
	if external.Location != nil {
		if err := addLocationFields(fields, external.Location, "exif"); err != nil {
			return nil, err
		}
	}

	return p.sendConfigure("media/configure_sidecar/", nil, fields)
}

// ConfigureTimelineAlbumWithRetries wraps ConfigureTimelineAlbum in the
// shared configure retry policy; useful because albums containing a video
// hit the same processing lag as single videos.
func (p *Publisher) ConfigureTimelineAlbumWithRetries(items []AlbumItem, external ExternalMetadata, maxAttempts int) (*network.Response, error) {
	return p.configureWithRetries(func() (*network.Response, error) {
		return p.ConfigureTimelineAlbum(items, external)
	}, maxAttempts)
}

func (p *Publisher) buildChildrenMetadata(items []AlbumItem) ([]interface{}, error) {
	capturedAt := p.timeNow().Format("2006:01:02 15:04:05")

	children := make([]interface{}, 0, len(items))
	for i, item := range items {
		switch item.Kind {
		case media.KindPhoto:
			config := albumPhotoConfig{
				DateTimeOriginal:  capturedAt,
				SceneType:         1,
				DisableComments:   false,
				UploadID:          item.UploadID,
				SourceType:        0,
				SceneCaptureType:  "standard",
				DateTimeDigitized: capturedAt,
				GeotagEnabled:     false,
				CameraPosition:    "back",
				Edits: albumPhotoEdits{
					FilterStrength: 1,
					FilterName:     "IGNormalFilter",
				},
			}
			if len(item.UserTags) > 0 {
				tags, err := json.Marshal(map[string][]UserTag{"in": item.UserTags})
				if err != nil {
					return nil, err
				}
				config.Usertags = string(tags)
			}
			children = append(children, config)
		case media.KindVideo:
			length := roundDuration(item.Descriptor.DurationSeconds())
			children = append(children, albumVideoConfig{
				Length:           length,
				DateTimeOriginal: capturedAt,
				SceneType:        1,
				PosterFrameIndex: 0,
				TrimType:         0,
				DisableComments:  false,
				UploadID:         item.UploadID,
				SourceType:       "library",
				GeotagEnabled:    false,
				Edits: albumVideoEdits{
					Length:         length,
					Cinema:         "unsupported",
					OriginalLength: length,
					SourceType:     "library",
					StartTime:      0,
					CameraPosition: "unknown",
					TrimType:       0,
				},
			})
		default:
			return nil, &media.InvalidInputError{Reason: fmt.Sprintf("album item %d has unknown kind %q", i, item.Kind)}
		}
	}

	return children, nil
}

func roundDuration(seconds float64) float64 {
	return math.Round(seconds*10) / 10
}
