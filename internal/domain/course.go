package domain

import "time"

// Course owns its modules, materials and thumbnails; they are removed with it.
// NamespaceID points at the isolated storage namespace assigned at creation
// time. It is never reassigned for the lifetime of the course.
type Course struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `json:"description"`
	InstructorID string    `gorm:"type:uuid;index" json:"instructorId"`
	NamespaceID  string    `gorm:"uniqueIndex;not null" json:"namespaceId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Module groups videos inside a course. Order is instructor controlled and
// assigned as max(order)+1 within the course on creation.
type Module struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  string    `gorm:"type:uuid;index;not null" json:"courseId"`
	Title     string    `gorm:"not null" json:"title"`
	Order     int       `gorm:"column:position" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// Video is the catalog row for a multipart-uploaded object. FileID references
// the assembled storage object; the row is only written after the storage
// service confirms assembly.
type Video struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID    string    `gorm:"type:uuid;index;not null" json:"moduleId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileID      string    `gorm:"index;not null" json:"fileId"`
	Duration    int       `json:"duration"`    // seconds
	Resolutions string    `json:"resolutions"` // e.g. "360p,720p,1080p"
	CreatedAt   time.Time `json:"createdAt"`
}
