package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// QRScanner wraps a camera stream and a barcode detector into a one-shot
// scan: the first non-empty decode stops the camera and fires onDecoded
// exactly once. The camera is released on every exit path - decode, error,
// explicit Close or context cancellation.
type QRScanner struct {
	source   VideoSource
	detector BarcodeDetector

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewQRScanner(source VideoSource, detector BarcodeDetector) *QRScanner {
	return &QRScanner{source: source, detector: detector}
}

// Open acquires a camera (preferring a rear-facing one when several are
// present) and starts scanning frames. At most one of onDecoded/onError is
// invoked, at most once, per Open call. Returns an error when a scan is
// already running or the camera cannot be acquired.
func (s *QRScanner) Open(ctx context.Context, onDecoded func(string), onError func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("scanner already open")
	}

	devices, err := s.source.Devices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	deviceID := pickDevice(devices, FacingBack)

	scanCtx, cancel := context.WithCancel(ctx)
	stream, err := s.source.Open(scanCtx, deviceID)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	slog.Debug("QR scanner opened", "device_id", deviceID, "cameras", len(devices))

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	var once sync.Once
	go func() {
		defer close(done)
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Warn("Failed to close camera stream", "error", err)
			}
		}()

		for {
			frame, err := stream.Next(scanCtx)
			if err != nil {
				if scanCtx.Err() != nil {
					// Cancelled via Close or parent context; no callback.
					return
				}
				once.Do(func() { onError(err) })
				return
			}

			text, err := s.detector.Detect(frame)
			if err != nil {
				if scanCtx.Err() != nil {
					return
				}
				once.Do(func() { onError(err) })
				return
			}
			if text == "" {
				continue
			}

			// Stop the camera before handing the result over so the next
			// screen can acquire it immediately.
			if err := stream.Close(); err != nil {
				slog.Warn("Failed to close camera stream", "error", err)
			}
			slog.Info("QR code decoded", "length", len(text))
			once.Do(func() { onDecoded(text) })
			return
		}
	}()

	return nil
}

// Close stops an in-flight scan and releases the camera. Pending callbacks
// that have not fired yet are suppressed. Safe to call when no scan is
// running, and safe to call more than once.
func (s *QRScanner) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Debug("QR scanner closed")
}
