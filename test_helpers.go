package main

import (
	"context"
	"fmt"

	"go-attendance-client/capture"
	"go-attendance-client/models"
)

// Fakes shared by the tests in this package.

type fakeAPI struct {
	policy    models.RoomPolicy
	policyErr error

	submitResp models.AttendanceResponse
	submitErr  error

	registered    bool
	registeredErr error

	enrollResp models.FaceEnrollmentResponse
	enrollErr  error

	refreshedToken string
	refreshErr     error

	calls       []string
	submissions []models.EvidenceSubmission
	enrollments []models.FaceEnrollmentRequest
}

func (f *fakeAPI) FetchRoomPolicy(_ context.Context, roomID int, token string) (models.RoomPolicy, error) {
	f.calls = append(f.calls, "FetchRoomPolicy")
	if f.policyErr != nil {
		return models.RoomPolicy{}, f.policyErr
	}
	policy := f.policy
	policy.RoomID = roomID
	return policy, nil
}

func (f *fakeAPI) SubmitAttendance(_ context.Context, evidence models.EvidenceSubmission) (models.AttendanceResponse, error) {
	f.calls = append(f.calls, "SubmitAttendance")
	f.submissions = append(f.submissions, evidence)
	if f.submitErr != nil {
		return models.AttendanceResponse{}, f.submitErr
	}
	return f.submitResp, nil
}

func (f *fakeAPI) IsFaceRegistered(_ context.Context, _ string) (bool, error) {
	f.calls = append(f.calls, "IsFaceRegistered")
	return f.registered, f.registeredErr
}

func (f *fakeAPI) RegisterFace(_ context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error) {
	f.calls = append(f.calls, "RegisterFace")
	f.enrollments = append(f.enrollments, req)
	return f.enrollResp, f.enrollErr
}

func (f *fakeAPI) OverwriteFace(_ context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error) {
	f.calls = append(f.calls, "OverwriteFace")
	f.enrollments = append(f.enrollments, req)
	return f.enrollResp, f.enrollErr
}

func (f *fakeAPI) RefreshToken(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, "RefreshToken")
	return f.refreshedToken, f.refreshErr
}

type fakeLocator struct {
	loc   models.Location
	err   error
	calls int
}

func (f *fakeLocator) CurrentLocation(context.Context) (models.Location, error) {
	f.calls++
	if f.err != nil {
		return models.Location{}, f.err
	}
	return f.loc, nil
}

type fakeWizard struct {
	image    string
	captures []capture.PoseCapture
	err      error

	singleCalls     int
	enrollmentCalls int
}

func (f *fakeWizard) CaptureSingle(context.Context) (string, error) {
	f.singleCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.image, nil
}

func (f *fakeWizard) CaptureEnrollment(context.Context) ([]capture.PoseCapture, error) {
	f.enrollmentCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.captures, nil
}

func enrollmentCaptures() []capture.PoseCapture {
	captures := make([]capture.PoseCapture, 0, len(capture.EnrollmentPoses))
	for i, pose := range capture.EnrollmentPoses {
		captures = append(captures, capture.PoseCapture{
			Pose:  pose,
			Image: fmt.Sprintf("img-%d-%s", i, pose),
		})
	}
	return captures
}
