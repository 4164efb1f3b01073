package video

// Job is the queue payload that tracks one direct upload until its asset is playable.
type Job struct {
	LessonID        string `json:"lesson_id"`
	Provider        string `json:"provider"`
	UploadID        string `json:"upload_id"`
	PreviousAssetID string `json:"previous_asset_id,omitempty"`
	Attempt         int    `json:"attempt"`
}
