// internal/coach/image.go
package coach

import (
	"bytes"
	"encoding/base64"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
)

// MaxImageDimension bounds the longer side of a photo sent to the AI service.
const MaxImageDimension = 1024

// shrinkImage re-encodes oversized photos as JPEG no larger than
// MaxImageDimension on either side. Anything it cannot decode is passed
// through untouched and left for the AI service to judge.
func shrinkImage(inline *InlineData) *InlineData {
	raw, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return inline
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		log.Debug("image not decodable, sending as is", "mime_type", inline.MimeType, "error", err)
		return inline
	}

	bounds := img.Bounds()
	if bounds.Dx() <= MaxImageDimension && bounds.Dy() <= MaxImageDimension {
		return inline
	}

	resized := imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		log.Error("failed to re-encode image", "error", err)
		return inline
	}

	log.Debugf("Resized image from %dx%d to %dx%d",
		bounds.Dx(), bounds.Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
	return &InlineData{MimeType: "image/jpeg", Data: base64.StdEncoding.EncodeToString(buf.Bytes())}
}
