package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go-attendance-client/models"
)

// AttendanceAPI is the remote attendance service as seen by the client.
// All business logic lives server-side; this interface only moves evidence
// and policy over HTTP.
type AttendanceAPI interface {
	// FetchRoomPolicy loads the room's check-in requirements. Called fresh
	// for every attempt; the result must not be cached.
	FetchRoomPolicy(ctx context.Context, roomID int, token string) (models.RoomPolicy, error)

	// SubmitAttendance sends one evidence bundle for verification.
	SubmitAttendance(ctx context.Context, evidence models.EvidenceSubmission) (models.AttendanceResponse, error)

	// IsFaceRegistered reports whether the user already has face data.
	IsFaceRegistered(ctx context.Context, token string) (bool, error)

	// RegisterFace and OverwriteFace submit a full enrollment pose set.
	RegisterFace(ctx context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error)
	OverwriteFace(ctx context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error)

	// RefreshToken exchanges a near-expiry access token for a fresh one.
	RefreshToken(ctx context.Context, token string) (string, error)
}

// APIError carries the HTTP status and the server's detail message so the
// caller can surface it verbatim to the user.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// HTTPAttendanceClient implements AttendanceAPI against the REST backend.
type HTTPAttendanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPAttendanceClient creates a client for the attendance API at baseURL.
func NewHTTPAttendanceClient(baseURL string) *HTTPAttendanceClient {
	return &HTTPAttendanceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPAttendanceClient) FetchRoomPolicy(ctx context.Context, roomID int, token string) (models.RoomPolicy, error) {
	query := url.Values{}
	query.Set("room_id", strconv.Itoa(roomID))
	query.Set("token", token)
	endpoint := fmt.Sprintf("%s/attendance/scan_qr?%s", c.baseURL, query.Encode())

	var policy models.RoomPolicy
	if err := c.getJSON(ctx, endpoint, &policy); err != nil {
		return models.RoomPolicy{}, err
	}
	policy.RoomID = roomID

	slog.Debug("Fetched room policy", "room_id", roomID,
		"face_auth", policy.RequiresFaceAuth, "geofence", policy.RequiresGeofence,
		"archived", policy.IsArchived)
	return policy, nil
}

func (c *HTTPAttendanceClient) SubmitAttendance(ctx context.Context, evidence models.EvidenceSubmission) (models.AttendanceResponse, error) {
	endpoint := fmt.Sprintf("%s/attendance/take_attendance", c.baseURL)

	var resp models.AttendanceResponse
	if err := c.postJSON(ctx, endpoint, evidence, &resp); err != nil {
		return models.AttendanceResponse{}, err
	}

	slog.Info("Attendance submitted", "room_id", evidence.RoomID,
		"with_face", evidence.Base64Image != "", "with_location", evidence.Location != nil)
	return resp, nil
}

func (c *HTTPAttendanceClient) IsFaceRegistered(ctx context.Context, token string) (bool, error) {
	query := url.Values{}
	query.Set("token", token)
	endpoint := fmt.Sprintf("%s/face-auth/is_face_registered?%s", c.baseURL, query.Encode())

	var status models.FaceRegistrationStatus
	if err := c.getJSON(ctx, endpoint, &status); err != nil {
		return false, err
	}
	return status.IsRegistered, nil
}

func (c *HTTPAttendanceClient) RegisterFace(ctx context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error) {
	return c.postEnrollment(ctx, "/face-auth/register_face", req)
}

func (c *HTTPAttendanceClient) OverwriteFace(ctx context.Context, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error) {
	return c.postEnrollment(ctx, "/face-auth/overwrite_face", req)
}

func (c *HTTPAttendanceClient) postEnrollment(ctx context.Context, path string, req models.FaceEnrollmentRequest) (models.FaceEnrollmentResponse, error) {
	endpoint := c.baseURL + path

	var resp models.FaceEnrollmentResponse
	if err := c.postJSON(ctx, endpoint, req, &resp); err != nil {
		return models.FaceEnrollmentResponse{}, err
	}

	slog.Info("Face enrollment submitted", "endpoint", path, "images", len(req.Images))
	return resp, nil
}

func (c *HTTPAttendanceClient) RefreshToken(ctx context.Context, token string) (string, error) {
	endpoint := fmt.Sprintf("%s/auth/refresh-token", c.baseURL)

	var resp models.RefreshTokenResponse
	if err := c.postJSON(ctx, endpoint, models.RefreshTokenRequest{Token: token}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("refresh response contained no access token")
	}

	slog.Debug("Access token refreshed")
	return resp.AccessToken, nil
}

// helpers ------------

func (c *HTTPAttendanceClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *HTTPAttendanceClient) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPAttendanceClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the server's detail message when the body carries
// one, falling back to the raw body text.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	slog.Debug("Server error without detail field", "status", resp.StatusCode, "body_len", len(body))
	return &APIError{StatusCode: resp.StatusCode, Detail: string(bytes.TrimSpace(body))}
}
