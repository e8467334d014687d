package probe

import (
	"fmt"

	"github.com/pixelpost-io/go-mediapost/media"
)

// Per-destination resolution, aspect-ratio and duration windows. The
// server enforces the same limits; checking locally avoids wasting a full
// transfer on media the configure step would reject anyway.
const (
	minWidth = 320
	maxWidth = 1080

	timelineMinAspect = 0.8  // 4:5 portrait
	timelineMaxAspect = 1.91 // landscape
	storyMinAspect    = 0.5  // 9:16-ish full screen
	storyMaxAspect    = 0.67

	timelineMinVideoSec = 3.0
	timelineMaxVideoSec = 60.0
	storyMinVideoSec    = 1.0
	storyMaxVideoSec    = 15.0
)

// Validate checks a probed descriptor against the limits of the given
// destination. Pure function: no I/O, no state.
func Validate(destination media.Destination, descriptor media.AssetDescriptor) error {
	if descriptor.Width < minWidth || descriptor.Width > maxWidth {
		return &media.PolicyViolationError{
			Destination: destination,
			Reason:      fmt.Sprintf("width %d px is outside the allowed %d-%d px range", descriptor.Width, minWidth, maxWidth),
		}
	}

	aspect := descriptor.AspectRatio()
	minAspect, maxAspect := timelineMinAspect, timelineMaxAspect
	if destination == media.DestinationStory {
		minAspect, maxAspect = storyMinAspect, storyMaxAspect
	}
	if aspect < minAspect || aspect > maxAspect {
		return &media.PolicyViolationError{
			Destination: destination,
			Reason:      fmt.Sprintf("aspect ratio %.4f is outside the allowed %.2f-%.2f range", aspect, minAspect, maxAspect),
		}
	}

	if descriptor.Kind == media.KindVideo {
		minSec, maxSec := timelineMinVideoSec, timelineMaxVideoSec
		if destination == media.DestinationStory {
			minSec, maxSec = storyMinVideoSec, storyMaxVideoSec
		}
		seconds := descriptor.DurationSeconds()
		if seconds < minSec || seconds > maxSec {
			return &media.PolicyViolationError{
				Destination: destination,
				Reason:      fmt.Sprintf("duration %.1fs is outside the allowed %.0f-%.0fs range", seconds, minSec, maxSec),
			}
		}
	}

	return nil
}
