package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"go-attendance-client/models"
)

// test doubles shared by the qr, wizard and geolocation tests

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

type fakeStream struct {
	mu      sync.Mutex
	closed  bool
	nextErr error
}

func (s *fakeStream) Next(ctx context.Context) (Frame, error) {
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	default:
	}
	if s.nextErr != nil {
		return Frame{}, s.nextErr
	}
	return Frame{Image: testImage(), CapturedAt: time.Now()}, nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeSource struct {
	mu         sync.Mutex
	devices    []DeviceInfo
	devicesErr error
	stream     *fakeStream
	openErr    error
	openedID   string
}

func (s *fakeSource) Devices() ([]DeviceInfo, error) {
	return s.devices, s.devicesErr
}

func (s *fakeSource) Open(ctx context.Context, deviceID string) (FrameStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.openedID = deviceID
	if s.stream == nil {
		s.stream = &fakeStream{}
	}
	return s.stream, nil
}

func (s *fakeSource) openedDevice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openedID
}

// scriptedBarcodeDetector returns each scripted result in turn, repeating
// the last one forever.
type scriptedBarcodeDetector struct {
	mu      sync.Mutex
	results []string
	errs    []error
	calls   int
}

func (d *scriptedBarcodeDetector) Detect(Frame) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.errs) && d.errs[i] != nil {
		return "", d.errs[i]
	}
	if len(d.results) == 0 {
		return "", nil
	}
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	return d.results[i], nil
}

// scriptedFaceDetector answers Detect from a script; past the end of the
// script it keeps returning the final entry.
type scriptedFaceDetector struct {
	mu        sync.Mutex
	loadErr   error
	script    []bool
	detectErr []error
	alternate bool
	calls     int
}

func (d *scriptedFaceDetector) Load(context.Context) error { return d.loadErr }

func (d *scriptedFaceDetector) Detect(Frame) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.detectErr) && d.detectErr[i] != nil {
		return false, d.detectErr[i]
	}
	if d.alternate {
		return i%2 == 0, nil
	}
	if len(d.script) == 0 {
		return true, nil
	}
	if i >= len(d.script) {
		i = len(d.script) - 1
	}
	return d.script[i], nil
}

type fakePositionSource struct {
	loc      models.Location
	err      error
	block    bool
	lastOpts PositionOptions
}

func (s *fakePositionSource) CurrentPosition(ctx context.Context, opts PositionOptions) (models.Location, error) {
	s.lastOpts = opts
	if s.block {
		<-ctx.Done()
		return models.Location{}, ctx.Err()
	}
	if s.err != nil {
		return models.Location{}, s.err
	}
	return s.loc, nil
}

var errDeviceBroken = errors.New("device broken")
