package models

// FaceEnrollmentRequest submits the full ordered set of pose images
// captured during enrollment. The server derives embeddings from them;
// the client never stores them beyond the request.
type FaceEnrollmentRequest struct {
	Token  string   `json:"token"`
	Images []string `json:"images"`
}

// FaceEnrollmentResponse is returned by both the register and overwrite
// endpoints.
type FaceEnrollmentResponse struct {
	Message string `json:"message"`
	FaceID  int    `json:"face_id,omitempty"`
}

// FaceRegistrationStatus reports whether the user already has face data
// on record, which decides between the register and overwrite endpoints.
type FaceRegistrationStatus struct {
	IsRegistered bool `json:"is_registered"`
}
