package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/pixelpost-io/go-mediapost/media"
	"github.com/pixelpost-io/go-mediapost/publish/network"
)

// Nested payload objects are JSON-encoded and passed as single string
// fields; that encoding is part of the wire contract.

type cropEdits struct {
	CropOriginalSize [2]int     `json:"crop_original_size"`
	CropZoom         int        `json:"crop_zoom"`
	CropCenter       [2]float64 `json:"crop_center"`
}

type sourceExtra struct {
	SourceWidth  int `json:"source_width"`
	SourceHeight int `json:"source_height"`
}

func configureEndpoint(destination media.Destination) (string, error) {
	switch destination {
	case media.DestinationTimeline:
		return "media/configure/", nil
	case media.DestinationStory:
		return "media/configure_to_story/", nil
	default:
		return "", &media.InvalidInputError{Reason: fmt.Sprintf("bad target destination %q", destination)}
	}
}

// configureSinglePhoto attaches one uploaded photo to a timeline or story.
// Albums are handled by ConfigureTimelineAlbum; keeping each destination
// and kind in its own builder avoids spiderweb branching.
func (p *Publisher) configureSinglePhoto(destination media.Destination, internal internalMetadata, external ExternalMetadata) (*network.Response, error) {
	endpoint, err := configureEndpoint(destination)
	if err != nil {
		return nil, err
	}

	caption := captionText(external.Caption)
	var location *Location
	if destination != media.DestinationStory {
		location = external.Location
	}

	edits, err := json.Marshal(cropEdits{
		CropOriginalSize: [2]int{internal.descriptor.Width, internal.descriptor.Height},
		CropZoom:         1,
		CropCenter:       [2]float64{0, math.Copysign(0, -1)},
	})
	if err != nil {
		return nil, err
	}
	deviceJSON, err := json.Marshal(p.deviceProfile)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(sourceExtra{
		SourceWidth:  internal.descriptor.Width,
		SourceHeight: internal.descriptor.Height,
	})
	if err != nil {
		return nil, err
	}

	identity := p.client.Identity()
	fields := map[string]string{
		"_csrftoken": identity.CSRFToken,
		"_uid":       identity.AccountID,
		"_uuid":      identity.DeviceUUID,
		"edits":      string(edits),
		"device":     string(deviceJSON),
		"extra":      string(extra),
	}

	now := p.timeNow().Unix()
	switch destination {
	case media.DestinationTimeline:
		fields["caption"] = caption
		fields["source_type"] = "4"
		fields["media_folder"] = "Camera"
		fields["upload_id"] = internal.uploadID
	case media.DestinationStory:
		fields["client_shared_at"] = strconv.FormatInt(now, 10)
		fields["source_type"] = "3"
		fields["configure_mode"] = "1"
		fields["client_timestamp"] = strconv.FormatInt(now, 10)
		fields["upload_id"] = internal.uploadID
	}

	if location != nil {
		if err := addLocationFields(fields, location, "av"); err != nil {
			return nil, err
		}
	}

	return p.sendConfigure(endpoint, nil, fields)
}

// configureSingleVideo attaches one uploaded video to a timeline or story.
func (p *Publisher) configureSingleVideo(destination media.Destination, internal internalMetadata, external ExternalMetadata) (*network.Response, error) {
	endpoint, err := configureEndpoint(destination)
	if err != nil {
		return nil, err
	}

	caption := captionText(external.Caption)
	var mentions []StoryMention
	if destination == media.DestinationStory {
		mentions = external.Mentions
	}
	var location *Location
	if destination != media.DestinationStory {
		location = external.Location
	}

	deviceJSON, err := json.Marshal(p.deviceProfile)
	if err != nil {
		return nil, err
	}
	extra, err := json.Marshal(sourceExtra{
		SourceWidth:  internal.descriptor.Width,
		SourceHeight: internal.descriptor.Height,
	})
	if err != nil {
		return nil, err
	}

	identity := p.client.Identity()
	fields := map[string]string{
		"video_result":       "deprecated",
		"upload_id":          internal.uploadID,
		"poster_frame_index": "0",
		"length":             formatDuration(internal.descriptor.DurationSeconds()),
		"audio_muted":        "false",
		"filter_type":        "0",
		"source_type":        "4",
		"device":             string(deviceJSON),
		"extra":              string(extra),
		"_csrftoken":         identity.CSRFToken,
		"_uuid":              identity.DeviceUUID,
		"_uid":               identity.AccountID,
	}

	now := p.timeNow().Unix()
	if destination == media.DestinationStory {
		fields["configure_mode"] = "1" // REEL_SHARE
		fields["client_shared_at"] = strconv.FormatInt(now-int64(3+rand.Intn(8)), 10)
		fields["client_timestamp"] = strconv.FormatInt(now, 10)
		fields["story_media_creation_date"] = strconv.FormatInt(now, 10)
		if len(mentions) > 0 {
			encoded, err := json.Marshal(mentions)
			if err != nil {
				return nil, err
			}
			fields["reel_mentions"] = string(encoded)
		}
	}
	fields["caption"] = caption

	if location != nil {
		if err := addLocationFields(fields, location, "av"); err != nil {
			return nil, err
		}
	}

	return p.sendConfigure(endpoint, map[string]string{"video": "1"}, fields)
}

func (p *Publisher) sendConfigure(endpoint string, query map[string]string, fields map[string]string) (*network.Response, error) {
	resp, err := p.client.Send(context.Background(), network.Request{
		Endpoint: endpoint,
		Query:    query,
		Fields:   fields,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &media.ConfigureFailedError{Message: resp.Message}
	}
	return resp, nil
}

// addLocationFields writes the full location field set: the JSON location
// block, the geotag flag and the coordinates duplicated under the posting_
// and media_ names, plus the zeroed legacy pair (av_ or exif_ prefixed,
// depending on the endpoint generation).
func addLocationFields(fields map[string]string, location *Location, legacyPrefix string) error {
	block := map[string]interface{}{
		location.ExternalIDSource + "_id": location.ExternalID,
		"name":                            location.Name,
		"lat":                             location.Lat,
		"lng":                             location.Lng,
		"address":                         location.Address,
		"external_source":                 location.ExternalIDSource,
	}
	encoded, err := json.Marshal(block)
	if err != nil {
		return err
	}

	lat := strconv.FormatFloat(location.Lat, 'f', -1, 64)
	lng := strconv.FormatFloat(location.Lng, 'f', -1, 64)

	fields["location"] = string(encoded)
	fields["geotag_enabled"] = "1"
	fields["posting_latitude"] = lat
	fields["posting_longitude"] = lng
	fields["media_latitude"] = lat
	fields["media_longitude"] = lng
	fields[legacyPrefix+"_latitude"] = "0.0"
	fields[legacyPrefix+"_longitude"] = "0.0"

	return nil
}

// formatDuration rounds to one decimal place, the precision the configure
// endpoints expect for video lengths.
func formatDuration(seconds float64) string {
	return strconv.FormatFloat(roundDuration(seconds), 'f', -1, 64)
}
