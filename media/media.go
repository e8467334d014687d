// Package media holds the value types shared by the upload and configure
// stages: destinations, media kinds and the per-asset descriptor produced
// by probing.
package media

// Destination is the feed an uploaded asset is attached to.
type Destination string

const (
	// DestinationTimeline is the user's main feed.
	DestinationTimeline Destination = "timeline"
	// DestinationStory is the ephemeral story feed.
	DestinationStory Destination = "story"
	// DestinationAlbum is a multi-item (sidecar) post.
	DestinationAlbum Destination = "album"
	// DestinationDirect is a direct-message share.
	DestinationDirect Destination = "direct_v2"
)

// Kind ...
type Kind string

const (
	// KindPhoto ...
	KindPhoto Kind = "photo"
	// KindVideo ...
	KindVideo Kind = "video"
)

// AssetDescriptor describes one local media file. It is produced by the
// probe package from file contents only and is read-only afterwards.
type AssetDescriptor struct {
	Path   string
	Kind   Kind
	Width  int
	Height int
	// DurationMs is the video duration in milliseconds. Zero for photos.
	DurationMs int64
}

// AspectRatio returns width/height, or 0 when the height is unknown.
func (d AssetDescriptor) AspectRatio() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// DurationSeconds returns the duration as fractional seconds.
func (d AssetDescriptor) DurationSeconds() float64 {
	return float64(d.DurationMs) / 1000.0
}
