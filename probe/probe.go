// Package probe inspects local media files and validates them against the
// platform's per-destination limits before any bytes are transferred.
package probe

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strconv"

	// Register the decoders for the image formats the platform accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/pixelpost-io/go-mediapost/media"
)

// Inspector derives media metadata from local files. Probe results depend
// only on file contents, so probing the same unchanged file twice yields
// the same descriptor.
type Inspector interface {
	InspectPhoto(path string) (media.AssetDescriptor, error)
	InspectVideo(path string) (media.AssetDescriptor, error)
	// ExtractVideoThumbnail renders a poster frame of the video into a
	// temp file and returns its path.
	ExtractVideoThumbnail(path string) (string, error)
}

type inspector struct {
	cmdFactory   command.Factory
	pathProvider pathutil.PathProvider
	logger       log.Logger
	ffprobeBin   string
	ffmpegBin    string
}

// NewInspector ...
func NewInspector(cmdFactory command.Factory, pathProvider pathutil.PathProvider, logger log.Logger) Inspector {
	return &inspector{
		cmdFactory:   cmdFactory,
		pathProvider: pathProvider,
		logger:       logger,
		ffprobeBin:   "ffprobe",
		ffmpegBin:    "ffmpeg",
	}
}

// InspectPhoto reads the dimensions of a local image file.
func (i *inspector) InspectPhoto(path string) (media.AssetDescriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("the photo file %q does not exist on disk: %s", path, err),
		}
	}
	defer func() {
		if err := file.Close(); err != nil {
			i.logger.Warnf("failed to close %s: %s", path, err)
		}
	}()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("file %q is not an image: %s", path, err),
		}
	}
	i.logger.Debugf("Probed %s image %s: %dx%d", format, path, config.Width, config.Height)

	return media.AssetDescriptor{
		Path:   path,
		Kind:   media.KindPhoto,
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// ffprobe emits numbers as strings in its JSON writer.
type ffprobeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Duration string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// InspectVideo extracts duration and dimensions of the first video stream
// via ffprobe.
func (i *inspector) InspectVideo(path string) (media.AssetDescriptor, error) {
	if _, err := os.Stat(path); err != nil {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("the video file %q does not exist on disk: %s", path, err),
		}
	}

	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}
	cmd := i.cmdFactory.Create(i.ffprobeBin, args, nil)
	i.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	out, err := cmd.RunAndReturnTrimmedOutput()
	if err != nil {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("file %q could not be probed as video: %s", path, err),
		}
	}

	return parseProbeOutput(path, out)
}

// ExtractVideoThumbnail grabs a frame one second in via ffmpeg.
func (i *inspector) ExtractVideoThumbnail(path string) (string, error) {
	tempDir, err := i.pathProvider.CreateTempDir("video-thumbnail")
	if err != nil {
		return "", err
	}
	thumbnailPath := filepath.Join(tempDir, "thumbnail.jpg")

	args := []string{
		"-y",
		"-i", path,
		"-ss", "00:00:01.000",
		"-frames:v", "1",
		"-q:v", "2",
		thumbnailPath,
	}
	cmd := i.cmdFactory.Create(i.ffmpegBin, args, nil)
	i.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		return "", &media.InvalidInputError{
			Reason: fmt.Sprintf("could not extract a thumbnail from %q: %s (%s)", path, err, out),
		}
	}

	return thumbnailPath, nil
}

func parseProbeOutput(path, out string) (media.AssetDescriptor, error) {
	var probed ffprobeOutput
	if err := json.Unmarshal([]byte(out), &probed); err != nil {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("unexpected probe output for %q: %s", path, err),
		}
	}
	if len(probed.Streams) == 0 {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("file %q has no video stream", path),
		}
	}

	stream := probed.Streams[0]
	duration := stream.Duration
	if duration == "" {
		duration = probed.Format.Duration
	}
	seconds, err := strconv.ParseFloat(duration, 64)
	if err != nil || seconds <= 0 {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("file %q has no usable duration", path),
		}
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return media.AssetDescriptor{}, &media.InvalidInputError{
			Reason: fmt.Sprintf("file %q has no usable dimensions", path),
		}
	}

	return media.AssetDescriptor{
		Path:       path,
		Kind:       media.KindVideo,
		Width:      stream.Width,
		Height:     stream.Height,
		DurationMs: int64(math.Ceil(seconds * 1000)),
	}, nil
}
