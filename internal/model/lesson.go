package model

import "time"

// Video processing states of a lesson
const (
	VideoStatusNone       = "none"
	VideoStatusUploading  = "uploading"
	VideoStatusProcessing = "processing"
	VideoStatusReady      = "ready"
	VideoStatusErrored    = "errored"
)

// Lesson is a single ordered unit of a course, stored in course_lessons.
// Position is 1-based and contiguous within a course.
type Lesson struct {
	ID               string    `db:"id" json:"id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	Title            string    `db:"title" json:"title"`
	Description      string    `db:"description" json:"description"`
	Position         int       `db:"position" json:"position"`
	IsPreview        bool      `db:"is_preview" json:"is_preview"`
	VideoProvider    string    `db:"video_provider" json:"video_provider"`
	VideoUploadID    string    `db:"video_upload_id" json:"video_upload_id"`
	VideoAssetID     string    `db:"video_asset_id" json:"video_asset_id"`
	VideoPlaybackURL string    `db:"video_playback_url" json:"video_playback_url"`
	VideoStatus      string    `db:"video_status" json:"video_status"`
	DurationSeconds  int       `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LessonVideo is the subset of lesson fields written by the video pipeline.
type LessonVideo struct {
	Provider        string
	UploadID        string
	AssetID         string
	PlaybackURL     string
	Status          string
	DurationSeconds int
}
