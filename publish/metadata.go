package publish

import (
	"github.com/pixelpost-io/go-mediapost/media"
)

// Location describes where a post was taken. The external id/source pair
// references the place in a third-party place directory.
type Location struct {
	ExternalID       string
	ExternalIDSource string
	Name             string
	Lat              float64
	Lng              float64
	Address          string
}

// UserTag marks one user on an album photo. Position is normalized x/y
// within [0,1].
type UserTag struct {
	UserID   string     `json:"user_id"`
	Position [2]float64 `json:"position"`
}

// StoryMention is a positioned user mention on a story video. All
// geometry values are normalized to [0,1]. The struct is serialized as-is
// into the reel_mentions field; the server does the rest.
type StoryMention struct {
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	UserID   string  `json:"user_id"`
	X        float64 `json:"x"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// ExternalMetadata is the caller-supplied optional metadata of a post.
// Values are validated defensively: a Caption that is not a string is
// treated as empty, and a Location is only honored for destinations that
// support one.
type ExternalMetadata struct {
	// Caption is expected to hold a string; any other type is coerced to
	// the empty string.
	Caption interface{}
	// Location is ignored for story posts.
	Location *Location
	// Mentions are only used for story videos.
	Mentions []StoryMention
}

func captionText(caption interface{}) string {
	if text, ok := caption.(string); ok {
		return text
	}
	return ""
}

// AlbumItem is one already-uploaded member of a multi-item post. The
// slice order given to ConfigureTimelineAlbum defines the display order.
type AlbumItem struct {
	Kind       media.Kind
	UploadID   string
	Descriptor media.AssetDescriptor
	// UserTags is per-item metadata, only supported on photos.
	UserTags []UserTag
}

// internalMetadata carries upload state between the transfer and configure
// stages of one asset. Never exposed to the caller.
type internalMetadata struct {
	uploadID   string
	descriptor media.AssetDescriptor
}
