package domain

import "time"

// CourseEnrollment links a user to a course. The (user, course) pair is
// unique; re-enrolling is a no-op.
type CourseEnrollment struct {
	UserID     string    `gorm:"type:uuid;primaryKey" json:"userId"`
	CourseID   string    `gorm:"type:uuid;primaryKey" json:"courseId"`
	Completed  bool      `json:"completed"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolledAt"`
}

// Favorite marks a course as favorited by a user.
type Favorite struct {
	UserID    string    `gorm:"type:uuid;primaryKey" json:"userId"`
	CourseID  string    `gorm:"type:uuid;primaryKey" json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoProgress is the per-user per-video watch state. One row per
// (user, video); upserts overwrite it, normal flow never deletes it.
type VideoProgress struct {
	UserID         string    `gorm:"type:uuid;primaryKey" json:"userId"`
	VideoID        string    `gorm:"type:uuid;primaryKey" json:"videoId"`
	WatchedSeconds int       `json:"watchedSeconds"`
	Completed      bool      `json:"completed"`
	LastWatchedAt  time.Time `json:"lastWatchedAt"`
}
