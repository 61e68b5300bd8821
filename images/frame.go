package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	xdraw "golang.org/x/image/draw"
)

// MaxUploadDimension bounds the longest edge of an uploaded frame. Webcam
// frames arrive at native resolution; anything larger than this is scaled
// down before encoding to keep submission payloads reasonable.
const MaxUploadDimension = 1280

// EncodeFrameJPEG encodes a captured frame as a base64 JPEG at maximum
// quality, scaling it down first when its longest edge exceeds maxDim.
// A maxDim of 0 applies MaxUploadDimension.
func EncodeFrameJPEG(frame image.Image, maxDim int) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("frame is nil")
	}
	if maxDim <= 0 {
		maxDim = MaxUploadDimension
	}

	scaled := scaleDown(frame, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 100}); err != nil {
		return "", fmt.Errorf("failed to encode frame as JPEG: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	slog.Debug("Encoded frame as JPEG", "bytes", buf.Len(), "base64_len", len(encoded))
	return encoded, nil
}

// EncodeFramePNG encodes a captured frame as a base64 PNG without scaling.
// Used where lossless output matters more than payload size.
func EncodeFramePNG(frame image.Image) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("frame is nil")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return "", fmt.Errorf("failed to encode frame as PNG: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	slog.Debug("Encoded frame as PNG", "bytes", buf.Len(), "base64_len", len(encoded))
	return encoded, nil
}

// DecodeBase64Image decodes a base64 string produced by EncodeFrameJPEG or
// EncodeFramePNG back into an image. Mostly useful in tests and diagnostics.
func DecodeBase64Image(encoded string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	slog.Debug("Decoded base64 image", "format", format, "bounds", img.Bounds())
	return img, nil
}

func scaleDown(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h)
	if longest <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	slog.Debug("Scaled frame down", "from", bounds, "to", dst.Bounds())
	return dst
}
