package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"go-attendance-client/capture"
	"go-attendance-client/models"
)

// Simulated device backend for development and demos: a synthetic camera, a
// barcode detector that always reads a configured payload, a face detector
// that always finds a face, and a fixed position source. Real deployments
// wire platform bindings behind the same capture interfaces.

type SimulatedDeviceConfig struct {
	QRPayload string  `json:"qr_payload"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const simFrameInterval = 33 * time.Millisecond // ~30fps

type simVideoSource struct{}

func (simVideoSource) Devices() ([]capture.DeviceInfo, error) {
	return []capture.DeviceInfo{
		{ID: "sim-0", Label: "Simulated Camera", Facing: capture.FacingFront},
	}, nil
}

func (simVideoSource) Open(ctx context.Context, deviceID string) (capture.FrameStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &simStream{}, nil
}

type simStream struct {
	mu     sync.Mutex
	closed bool
}

func (s *simStream) Next(ctx context.Context) (capture.Frame, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return capture.Frame{}, fmt.Errorf("stream closed")
	}

	select {
	case <-ctx.Done():
		return capture.Frame{}, ctx.Err()
	case <-time.After(simFrameInterval):
	}

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.Gray{Y: 96})
		}
	}
	return capture.Frame{Image: img, CapturedAt: time.Now()}, nil
}

func (s *simStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type simBarcodeDetector struct {
	payload string
}

func (d simBarcodeDetector) Detect(capture.Frame) (string, error) {
	return d.payload, nil
}

type simFaceDetector struct{}

func (simFaceDetector) Load(context.Context) error { return nil }

func (simFaceDetector) Detect(capture.Frame) (bool, error) { return true, nil }

type simPositionSource struct {
	loc models.Location
}

func (s simPositionSource) CurrentPosition(context.Context, capture.PositionOptions) (models.Location, error) {
	return s.loc, nil
}
