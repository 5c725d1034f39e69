package domain

import "time"

// CourseMaterial is metadata for a single-shot uploaded object (PDFs, slides,
// attachments). The row is written by an explicit save call after the client
// uploaded directly to storage; nothing verifies the object actually exists.
type CourseMaterial struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  string    `gorm:"type:uuid;index;not null" json:"courseId"`
	FileID    string    `gorm:"index;not null" json:"fileId"`
	Name      string    `json:"name"`
	FileType  string    `json:"fileType"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// CourseThumbnail is a stored image attached to a course. A course may keep
// several; the newest is used as the display thumbnail.
type CourseThumbnail struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  string    `gorm:"type:uuid;index;not null" json:"courseId"`
	FileID    string    `gorm:"index;not null" json:"fileId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
