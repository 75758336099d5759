package conversion

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // webp decode support

	"github.com/convertfile/converter/internal/constants"
)

// ConvertImage re-encodes the image at sourcePath into targetFormat at
// targetPath. JPEG targets have their alpha channel dropped (RGB content
// preserved, no compositing) since the format cannot carry one. Lossy
// targets use a fixed quality setting. Single attempt, no retry.
func ConvertImage(sourcePath, targetPath, targetFormat string) error {
	img, err := imaging.Open(sourcePath)
	if err != nil {
		return &ImageDecodeError{Path: sourcePath, Err: err}
	}

	targetFormat = strings.ToLower(targetFormat)
	if targetFormat == "jpg" || targetFormat == "jpeg" {
		img = dropAlpha(img)
	}

	out, err := os.Create(targetPath)
	if err != nil {
		return &ImageEncodeError{Path: targetPath, Err: err}
	}

	encodeErr := encodeImage(out, img, targetFormat)
	closeErr := out.Close()
	if encodeErr != nil {
		return &ImageEncodeError{Path: targetPath, Err: encodeErr}
	}
	if closeErr != nil {
		return &ImageEncodeError{Path: targetPath, Err: closeErr}
	}
	return nil
}

func encodeImage(out *os.File, img image.Image, targetFormat string) error {
	switch targetFormat {
	case "jpg", "jpeg":
		return imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(constants.ImageQuality))
	case "png":
		return imaging.Encode(out, img, imaging.PNG)
	case "gif":
		return imaging.Encode(out, img, imaging.GIF)
	case "bmp":
		return imaging.Encode(out, img, imaging.BMP)
	case "tiff":
		return imaging.Encode(out, img, imaging.TIFF)
	case "webp":
		return webp.Encode(out, img, &webp.Options{Quality: constants.ImageQuality})
	default:
		return fmt.Errorf("unsupported image target format %q", targetFormat)
	}
}

// dropAlpha forces every pixel fully opaque while keeping the stored RGB
// values untouched. Compositing against a background would alter color
// content; formats without alpha just lose the channel.
func dropAlpha(img image.Image) *image.NRGBA {
	nrgba := imaging.Clone(img)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 0xff
	}
	return nrgba
}
