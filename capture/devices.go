// Package capture provides the device-facing half of the check-in client:
// camera and geolocation adapters plus the face-capture wizard. All hardware
// access goes through small interfaces so the workflow can be driven by real
// platform bindings in production and by fakes in tests.
package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"go-attendance-client/models"
)

// Frame is a single video frame grabbed from a camera stream.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
}

// Facing describes which way a camera points.
type Facing int

const (
	FacingUnknown Facing = iota
	FacingFront
	FacingBack
)

// DeviceInfo describes one enumerable camera.
type DeviceInfo struct {
	ID     string
	Label  string
	Facing Facing
}

// VideoSource enumerates cameras and opens exclusive frame streams.
// Implementations wrap the platform media layer.
type VideoSource interface {
	// Devices lists the available cameras. An empty list is valid and means
	// no camera hardware is present.
	Devices() ([]DeviceInfo, error)

	// Open acquires the camera identified by deviceID and starts streaming.
	// An empty deviceID opens the platform default camera. The stream holds
	// the hardware exclusively until Close is called.
	Open(ctx context.Context, deviceID string) (FrameStream, error)
}

// FrameStream delivers frames from an open camera. Close releases the
// hardware and must be safe to call more than once.
type FrameStream interface {
	// Next blocks until the next frame is available or ctx is done.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// BarcodeDetector inspects a frame for a QR code. It returns the decoded
// text, or the empty string when no code is present in the frame.
type BarcodeDetector interface {
	Detect(frame Frame) (string, error)
}

// FaceDetector reports whether a frame contains a detectable face. Load
// fetches the model assets and must succeed before Detect is called.
type FaceDetector interface {
	Load(ctx context.Context) error
	Detect(frame Frame) (bool, error)
}

// PositionOptions mirror the platform geolocation request knobs.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge bounds how stale a cached fix may be. Zero demands a
	// fresh reading.
	MaximumAge time.Duration
}

// PositionSource is the platform geolocation capability. A nil source
// means the platform has none.
type PositionSource interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (models.Location, error)
}

// pickDevice chooses a camera from the enumerated list. With more than one
// camera present the preferred facing wins when available; otherwise the
// platform default (empty ID) is used.
func pickDevice(devices []DeviceInfo, preferred Facing) string {
	if len(devices) < 2 {
		return ""
	}
	for _, d := range devices {
		if d.Facing == preferred {
			return d.ID
		}
	}
	return ""
}

// Sentinel errors for the capture workflow. All are terminal for the
// session that raised them; none are retried automatically.
var (
	ErrCameraUnavailable      = errors.New("camera unavailable")
	ErrModelLoadFailure       = errors.New("failed to load face detection models")
	ErrGeolocationUnsupported = errors.New("geolocation is not supported on this device")
	ErrLocationDenied         = errors.New("location permission denied or request timed out")
	ErrCaptureCancelled       = errors.New("capture cancelled")
)
