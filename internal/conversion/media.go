// Package conversion re-encodes media files: images in-process, audio and
// video by shelling out to ffmpeg.
package conversion

import (
	"context"
	"log"
	"strings"

	"github.com/convertfile/converter/internal/command"
	"github.com/convertfile/converter/internal/constants"
	"github.com/convertfile/converter/internal/format"
)

// codecMapping pairs the stream codec for a target format with the media
// category that format belongs to.
type codecMapping struct {
	Codec    string
	Category format.Category
}

// codecTable maps target formats to ffmpeg codec arguments. Initialized once
// at process start and never mutated.
var codecTable = map[string]codecMapping{
	"mp3":  {"libmp3lame", format.Audio},
	"wav":  {"pcm_s16le", format.Audio},
	"ogg":  {"libvorbis", format.Audio},
	"flac": {"flac", format.Audio},
	"aac":  {"aac", format.Audio},
	"m4a":  {"aac", format.Audio},
	"opus": {"libopus", format.Audio},
	"mp4":  {"libx264", format.Video},
	"webm": {"libvpx-vp9", format.Video},
	"avi":  {"libx264", format.Video},
	"mov":  {"libx264", format.Video},
	"mkv":  {"libx264", format.Video},
}

// MediaConverter re-encodes audio and video files via ffmpeg.
type MediaConverter struct {
	runner command.Runner
}

// NewMediaConverter creates a MediaConverter using the given command runner.
func NewMediaConverter(runner command.Runner) *MediaConverter {
	return &MediaConverter{runner: runner}
}

// Convert re-encodes sourcePath into targetPath. The stream layout of the
// output depends on the source category and the category the target format
// belongs to:
//
//	audio -> audio: re-encode the audio stream, strip any video
//	video -> video: re-encode video, force AAC audio
//	video -> audio: extract the audio stream only
//	anything else:  stream copy
//
// Unrecognized target formats fall back to a stream copy in the source's
// category. Single attempt, no retry, no timeout.
func (c *MediaConverter) Convert(ctx context.Context, sourcePath, targetPath, targetFormat string, sourceCategory format.Category) error {
	if _, err := c.runner.LookPath(constants.FFmpegTool); err != nil {
		return &command.ToolNotFoundError{Tool: constants.FFmpegTool}
	}

	mapping, ok := codecTable[strings.ToLower(targetFormat)]
	if !ok {
		mapping = codecMapping{Codec: "copy", Category: sourceCategory}
	}

	args := []string{"-i", sourcePath, "-y"}
	switch {
	case sourceCategory == format.Audio && mapping.Category == format.Audio:
		args = append(args, "-acodec", mapping.Codec, "-vn")
	case sourceCategory == format.Video && mapping.Category == format.Video:
		args = append(args, "-c:v", mapping.Codec, "-c:a", "aac")
	case sourceCategory == format.Video && mapping.Category == format.Audio:
		args = append(args, "-vn", "-acodec", mapping.Codec)
	default:
		args = append(args, "-c", "copy")
	}
	args = append(args, targetPath)

	log.Printf("Executing ffmpeg: %s", strings.Join(args, " "))
	_, stderr, err := c.runner.Run(ctx, constants.FFmpegTool, args...)
	if err != nil {
		excerpt := command.Truncate(stderr, constants.FFmpegErrorExcerptLimit)
		log.Printf("ERROR: ffmpeg failed converting %s to %s: %v: %s", sourcePath, targetFormat, err, excerpt)
		return &TranscodeError{Output: excerpt, Err: err}
	}
	return nil
}
