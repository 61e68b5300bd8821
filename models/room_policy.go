package models

// RoomPolicy describes what a room demands before attendance is accepted.
// It is fetched fresh for every check-in attempt and never cached; the
// server is the only authority on room configuration.
type RoomPolicy struct {
	RoomID           int  `json:"room_id"`
	RequiresFaceAuth bool `json:"isFaceAuth"`
	RequiresGeofence bool `json:"isGeofence"`
	IsArchived       bool `json:"is_archived"`
}
