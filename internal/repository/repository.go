package repository

import (
	"context"
	"time"

	"lurnix/course-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("already exists")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	// Create inserts a new user. A unique-index violation on email or
	// external id is reported as ErrConflict so callers racing on first
	// login can treat it as "already exists, proceed".
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByExternalIDOrEmail matches either identity column; used by the
	// delegated session path.
	GetByExternalIDOrEmail(ctx context.Context, externalID, email string) (*domain.User, error)
	// UpdateProfile applies the non-nil fields of update to the user's row.
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
}

// ProfileUpdate carries the profile fields a user may change about
// themselves. Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string
	Bio      *string
	Website  *string
	Phone    *string
	Location *string
}

// CourseRepository defines the interface for interacting with course data.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	List(ctx context.Context, limit, offset int) ([]domain.Course, error)
	Update(ctx context.Context, id, title, description string) error
	Delete(ctx context.Context, id string) error
}

// ModuleRepository defines the interface for interacting with module data.
type ModuleRepository interface {
	// Create assigns Order = max(order)+1 within the course.
	Create(ctx context.Context, module *domain.Module) error
	GetByID(ctx context.Context, id string) (*domain.Module, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Module, error)
	IDsByCourse(ctx context.Context, courseID string) ([]string, error)
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) error
}

// VideoListing is the joined projection used by the instructor video list.
type VideoListing struct {
	domain.Video
	ModuleTitle       string `json:"moduleTitle"`
	CourseID          string `json:"courseId"`
	CourseTitle       string `json:"courseTitle"`
	ThumbnailFileID   string `json:"-"`
	ThumbnailURL      string `json:"thumbnailUrl,omitempty"`
}

// VideoRepository defines the interface for interacting with video data.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	ListByModule(ctx context.Context, moduleID string) ([]domain.Video, error)
	FileIDsByModule(ctx context.Context, moduleID string) ([]string, error)
	DeleteByModuleIDs(ctx context.Context, moduleIDs []string) error
	// DeleteByFileIDs removes video rows under a module matching the given
	// storage file ids.
	DeleteByFileIDs(ctx context.Context, moduleID string, fileIDs []string) error
	// Search lists an instructor's videos joined with module, course and the
	// newest course thumbnail, optionally filtered by a free-text query.
	Search(ctx context.Context, instructorID, query string, limit, offset int) ([]VideoListing, error)
}

// MaterialRepository covers course materials and thumbnails; both follow the
// single-shot upload protocol and are owned by their course.
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, m *domain.CourseMaterial) error
	ListMaterials(ctx context.Context, courseID string) ([]domain.CourseMaterial, error)
	// MaterialFileIDs resolves storage object ids for the targeted rows,
	// scoped to the course.
	MaterialFileIDs(ctx context.Context, courseID string, materialIDs []string) ([]string, error)
	DeleteMaterials(ctx context.Context, courseID string, materialIDs []string) error
	DeleteMaterialsByCourse(ctx context.Context, courseID string) error

	CreateThumbnail(ctx context.Context, t *domain.CourseThumbnail) error
	ListThumbnails(ctx context.Context, courseID string) ([]domain.CourseThumbnail, error)
	LatestThumbnail(ctx context.Context, courseID string) (*domain.CourseThumbnail, error)
	DeleteThumbnailByFileID(ctx context.Context, courseID, fileID string) error
	DeleteThumbnailsByCourse(ctx context.Context, courseID string) error
}

// LearnerRepository covers enrollments, favorites and watch progress.
type LearnerRepository interface {
	// Enroll inserts the (user, course) pair; an existing pair is a no-op.
	Enroll(ctx context.Context, userID, courseID string) error
	Favorite(ctx context.Context, userID, courseID string) error
	Unfavorite(ctx context.Context, userID, courseID string) error
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
	IsFavorite(ctx context.Context, userID, courseID string) (bool, error)
	DeleteEnrollmentsByCourse(ctx context.Context, courseID string) error
	DeleteFavoritesByCourse(ctx context.Context, courseID string) error

	// UpsertProgress writes the (user, video) row. With monotonic false the
	// incoming values win unconditionally; with monotonic true watchedSeconds
	// only ever grows and completed is sticky.
	UpsertProgress(ctx context.Context, p *domain.VideoProgress, monotonic bool) error
	GetProgress(ctx context.Context, userID, videoID string) (*domain.VideoProgress, error)
}

// IntentRepository stores write-ahead records around external storage calls.
type IntentRepository interface {
	Create(ctx context.Context, intent *domain.StorageIntent) error
	MarkResolved(ctx context.Context, id string) error
	MarkAborted(ctx context.Context, id string) error
	// MarkResolvedByFileID resolves the pending intents referencing a file
	// id; used when completion happens in a different request than the
	// presign that recorded the intent.
	MarkResolvedByFileID(ctx context.Context, fileID string) error
	// ListStalePending returns pending intents created before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]domain.StorageIntent, error)
}
