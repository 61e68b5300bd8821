package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go-attendance-client/capture"
	"go-attendance-client/models"

	"github.com/google/uuid"
)

// Check-in failures. All are terminal for the attempt: the agent reports
// the message and goes back to scanning. Nothing is retried automatically.
var (
	ErrInvalidQRPayload     = errors.New("invalid QR code payload")
	ErrRoomArchived         = errors.New("this room is archived; attendance cannot be marked")
	ErrPolicyFetch          = errors.New("failed to fetch room settings")
	ErrLocationUnavailable  = errors.New("failed to fetch your location")
	ErrVerificationRejected = errors.New("attendance was rejected")
)

// FaceCapturer runs a face-capture session. Satisfied by *capture.FaceWizard.
type FaceCapturer interface {
	CaptureSingle(ctx context.Context) (string, error)
	CaptureEnrollment(ctx context.Context) ([]capture.PoseCapture, error)
}

// LocationProvider resolves a fresh position fix. Satisfied by
// *capture.Geolocator.
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (models.Location, error)
}

// CheckInResult is the outcome of one successful attempt.
type CheckInResult struct {
	AttemptID    string    `json:"attempt_id"`
	RoomID       int       `json:"room_id"`
	Message      string    `json:"message"`
	UsedFace     bool      `json:"used_face"`
	UsedGeofence bool      `json:"used_geofence"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Orchestrator coordinates one check-in attempt end to end: parse the
// decoded QR payload, fetch the room policy, gather exactly the evidence
// the policy demands (location before face, always) and submit it once.
type Orchestrator struct {
	api     AttendanceAPI
	locator LocationProvider
	wizard  FaceCapturer
}

func NewOrchestrator(api AttendanceAPI, locator LocationProvider, wizard FaceCapturer) *Orchestrator {
	return &Orchestrator{api: api, locator: locator, wizard: wizard}
}

// CheckIn runs one attendance attempt for the given decoded QR text.
//
// The policy decides which adapters run: neither, location only, face only,
// or both. When both are required the location is acquired first, so a face
// capture failure never wastes a successful fix; a fix that was already
// acquired stays attached to the final submission.
func (o *Orchestrator) CheckIn(ctx context.Context, decodedText, accessToken string) (CheckInResult, error) {
	attemptID := uuid.NewString()
	slog.Info("Check-in attempt started", "attempt_id", attemptID)

	roomID, err := strconv.Atoi(strings.TrimSpace(decodedText))
	if err != nil {
		slog.Warn("QR payload is not a room id", "attempt_id", attemptID, "payload_len", len(decodedText))
		return CheckInResult{}, ErrInvalidQRPayload
	}

	policy, err := o.api.FetchRoomPolicy(ctx, roomID, accessToken)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("%w: %v", ErrPolicyFetch, err)
	}

	if policy.IsArchived {
		slog.Warn("Room is archived", "attempt_id", attemptID, "room_id", roomID)
		return CheckInResult{}, ErrRoomArchived
	}

	evidence := models.EvidenceSubmission{
		RoomID: roomID,
		Token:  accessToken,
	}

	if policy.RequiresGeofence {
		loc, err := o.locator.CurrentLocation(ctx)
		if err != nil {
			return CheckInResult{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
		}
		evidence.Location = &loc
		slog.Debug("Location attached to evidence", "attempt_id", attemptID)
	}

	if policy.RequiresFaceAuth {
		img, err := o.wizard.CaptureSingle(ctx)
		if err != nil {
			return CheckInResult{}, err
		}
		evidence.Base64Image = img
		slog.Debug("Face image attached to evidence", "attempt_id", attemptID)
	}

	resp, err := o.api.SubmitAttendance(ctx, evidence)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("%w: %v", ErrVerificationRejected, err)
	}

	result := CheckInResult{
		AttemptID:    attemptID,
		RoomID:       roomID,
		Message:      resp.Message,
		UsedFace:     policy.RequiresFaceAuth,
		UsedGeofence: policy.RequiresGeofence,
		CompletedAt:  time.Now(),
	}
	slog.Info("Check-in attempt succeeded", "attempt_id", attemptID, "room_id", roomID,
		"used_face", result.UsedFace, "used_geofence", result.UsedGeofence)
	return result, nil
}

// EnrollFace runs the five-pose enrollment wizard and submits the pose set
// to the register or overwrite endpoint, depending on whether the user
// already has face data on record. Cancelling mid-session discards every
// captured pose; a failed enrollment restarts from the first pose.
func (o *Orchestrator) EnrollFace(ctx context.Context, accessToken string) (models.FaceEnrollmentResponse, error) {
	registered, err := o.api.IsFaceRegistered(ctx, accessToken)
	if err != nil {
		return models.FaceEnrollmentResponse{}, fmt.Errorf("failed to check face registration: %w", err)
	}

	captures, err := o.wizard.CaptureEnrollment(ctx)
	if err != nil {
		return models.FaceEnrollmentResponse{}, err
	}

	imgs := make([]string, len(captures))
	for i, c := range captures {
		imgs[i] = c.Image
	}
	req := models.FaceEnrollmentRequest{Token: accessToken, Images: imgs}

	var resp models.FaceEnrollmentResponse
	if registered {
		slog.Info("Overwriting existing face enrollment", "poses", len(imgs))
		resp, err = o.api.OverwriteFace(ctx, req)
	} else {
		slog.Info("Registering new face enrollment", "poses", len(imgs))
		resp, err = o.api.RegisterFace(ctx, req)
	}
	if err != nil {
		return models.FaceEnrollmentResponse{}, fmt.Errorf("failed to submit face enrollment: %w", err)
	}
	return resp, nil
}
