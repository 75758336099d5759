package conversion

import "fmt"

// ImageDecodeError indicates the source image could not be opened or decoded.
type ImageDecodeError struct {
	Path string
	Err  error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *ImageDecodeError) Unwrap() error { return e.Err }

// ImageEncodeError indicates the converted image could not be encoded or written.
type ImageEncodeError struct {
	Path string
	Err  error
}

func (e *ImageEncodeError) Error() string {
	return fmt.Sprintf("failed to encode image %s: %v", e.Path, e.Err)
}

func (e *ImageEncodeError) Unwrap() error { return e.Err }

// TranscodeError indicates ffmpeg exited non-zero. Output carries a
// truncated excerpt of the tool's stderr.
type TranscodeError struct {
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s", e.Output)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
