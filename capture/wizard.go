package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-attendance-client/images"
)

// Pose is one of the five fixed head orientations captured during face
// enrollment.
type Pose string

const (
	PoseFront Pose = "front"
	PoseLeft  Pose = "left"
	PoseRight Pose = "right"
	PoseUp    Pose = "up"
	PoseDown  Pose = "down"
)

// EnrollmentPoses is the fixed capture order for enrollment sessions.
var EnrollmentPoses = []Pose{PoseFront, PoseLeft, PoseRight, PoseUp, PoseDown}

// WizardState tracks where the capture session currently is.
type WizardState int

const (
	StateInitializing WizardState = iota
	StateAwaitingFace
	StateFaceHeld
	StateCaptured
	StateComplete
)

// Default timing parameters. The modal check-in flow holds the face a full
// second before capturing; enrollment uses the shorter dwell so five poses
// stay tolerable.
const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultDwellSingle     = 1000 * time.Millisecond
	DefaultDwellEnrollment = 500 * time.Millisecond
)

// WizardConfig tunes the wizard's timing. Zero values take the defaults for
// the mode being run.
type WizardConfig struct {
	PollInterval  time.Duration
	DwellDuration time.Duration
}

// PoseCapture pairs a pose label with its captured image.
type PoseCapture struct {
	Pose  Pose
	Image string // base64 JPEG
}

// FaceWizard drives a camera preview against a face detector: it polls the
// detector at a fixed interval, and once a face has been continuously held
// for the dwell duration it captures the current frame. Single-shot mode
// captures one frame; enrollment mode walks the five fixed poses in order.
//
// The camera is held exclusively for the whole session and released on
// every exit path. Cancelling the context stops polling, clears any pending
// dwell timer and discards everything captured so far.
type FaceWizard struct {
	source   VideoSource
	detector FaceDetector
	config   WizardConfig

	// feedback receives user-facing status text; nil disables it.
	feedback func(string)
}

func NewFaceWizard(source VideoSource, detector FaceDetector, config WizardConfig) *FaceWizard {
	return &FaceWizard{source: source, detector: detector, config: config}
}

// SetFeedback registers a callback for user-facing status messages
// ("position your face", "stay still"). Must be set before a session runs.
func (w *FaceWizard) SetFeedback(fn func(string)) {
	w.feedback = fn
}

// CaptureSingle runs a single-shot session and returns one base64 JPEG.
func (w *FaceWizard) CaptureSingle(ctx context.Context) (string, error) {
	captures, err := w.run(ctx, []Pose{PoseFront}, w.dwell(DefaultDwellSingle))
	if err != nil {
		return "", err
	}
	return captures[0].Image, nil
}

// CaptureEnrollment runs a five-pose enrollment session. The result is
// ordered front, left, right, up, down; each pose is captured exactly once
// with no retake step. Cancellation discards all captured poses.
func (w *FaceWizard) CaptureEnrollment(ctx context.Context) ([]PoseCapture, error) {
	return w.run(ctx, EnrollmentPoses, w.dwell(DefaultDwellEnrollment))
}

func (w *FaceWizard) dwell(modeDefault time.Duration) time.Duration {
	if w.config.DwellDuration > 0 {
		return w.config.DwellDuration
	}
	return modeDefault
}

func (w *FaceWizard) poll() time.Duration {
	if w.config.PollInterval > 0 {
		return w.config.PollInterval
	}
	return DefaultPollInterval
}

func (w *FaceWizard) run(ctx context.Context, poses []Pose, dwell time.Duration) ([]PoseCapture, error) {
	// Initializing: model assets and camera must both be ready before any
	// polling starts. Either failure is terminal for the session.
	w.say("Initializing face capture...")
	if err := w.detector.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadFailure, err)
	}

	devices, err := w.source.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	stream, err := w.source.Open(ctx, pickDevice(devices, FacingFront))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("Failed to close camera stream", "error", err)
		}
	}()

	slog.Info("Face capture session started", "poses", len(poses), "poll", w.poll(), "dwell", dwell)

	ticker := time.NewTicker(w.poll())
	defer ticker.Stop()

	state := StateAwaitingFace
	poseIdx := 0
	captures := make([]PoseCapture, 0, len(poses))

	var lastFrame Frame
	var dwellTimer *time.Timer
	var dwellC <-chan time.Time

	stopDwell := func() {
		if dwellTimer != nil {
			dwellTimer.Stop()
			dwellTimer = nil
			dwellC = nil
		}
	}
	defer stopDwell()

	w.say(poseFeedback(poses, poseIdx))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Face capture session cancelled", "captured", len(captures))
			return nil, fmt.Errorf("%w: %v", ErrCaptureCancelled, ctx.Err())

		case <-ticker.C:
			frame, err := stream.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %v", ErrCaptureCancelled, ctx.Err())
				}
				slog.Warn("Failed to grab frame", "error", err)
				continue
			}
			lastFrame = frame

			found, err := w.detector.Detect(frame)
			if err != nil {
				// Transient detector errors keep the session alive, the
				// same way the polling loop in the UI shrugs them off.
				slog.Warn("Face detection poll failed", "error", err)
				w.say("An error occurred. Please try again.")
				continue
			}

			switch {
			case found && state == StateAwaitingFace:
				state = StateFaceHeld
				dwellTimer = time.NewTimer(dwell)
				dwellC = dwellTimer.C
				w.say("Stay still...")
				slog.Debug("Face detected, dwell started", "pose", poses[poseIdx], "dwell", dwell)

			case !found && state == StateFaceHeld:
				// Debounce: the face vanished before the dwell elapsed.
				state = StateAwaitingFace
				stopDwell()
				w.say(poseFeedback(poses, poseIdx))
				slog.Debug("Face lost before dwell elapsed", "pose", poses[poseIdx])
			}

		case <-dwellC:
			// Face held for the full dwell: capture the current frame.
			stopDwell()

			encoded, err := images.EncodeFrameJPEG(lastFrame.Image, 0)
			if err != nil {
				return nil, fmt.Errorf("failed to encode captured frame: %w", err)
			}
			captures = append(captures, PoseCapture{Pose: poses[poseIdx], Image: encoded})
			slog.Info("Pose captured", "pose", poses[poseIdx], "step", poseIdx+1, "of", len(poses))

			poseIdx++
			if poseIdx >= len(poses) {
				w.say("Face captured successfully!")
				slog.Info("Face capture session complete", "captures", len(captures))
				return captures, nil
			}

			state = StateAwaitingFace
			w.say(poseFeedback(poses, poseIdx))
		}
	}
}

func (w *FaceWizard) say(msg string) {
	if w.feedback != nil {
		w.feedback(msg)
	}
}

func poseFeedback(poses []Pose, idx int) string {
	if len(poses) == 1 {
		return "Please position your face in the circle."
	}
	return fmt.Sprintf("Please position your face for the %q pose.", poses[idx])
}
