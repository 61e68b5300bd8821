package models

// Location is a single geographic fix in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EvidenceSubmission is the bundle of proof sent with one check-in attempt.
// It is built incrementally by the orchestrator, submitted once and then
// discarded. Optional fields are omitted entirely when the room policy did
// not require them.
type EvidenceSubmission struct {
	RoomID      int       `json:"room_id"`
	Token       string    `json:"token"`
	Base64Image string    `json:"base64_image,omitempty"`
	Location    *Location `json:"geofence_location,omitempty"`
}

// AttendanceResponse carries the server's confirmation message for a
// successful check-in.
type AttendanceResponse struct {
	Message string `json:"message"`
}
