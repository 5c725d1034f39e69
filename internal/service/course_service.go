package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrNamespaceCreation = errors.New("failed to create storage namespace")
	ErrInvalidThumbnail  = errors.New("invalid thumbnail image data")
)

// CourseSummary is a course list item enriched with a short-lived thumbnail
// URL and the caller's enrollment/favorite flags.
type CourseSummary struct {
	domain.Course
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Enrolled     bool   `json:"enrolled"`
	Favorite     bool   `json:"favorite"`
}

// ModuleWithVideos bundles a module with its videos for the course detail view.
type ModuleWithVideos struct {
	domain.Module
	Videos []domain.Video `json:"videos"`
}

// CourseDetail is the full course view.
type CourseDetail struct {
	domain.Course
	ThumbnailURL string             `json:"thumbnailUrl,omitempty"`
	Modules      []ModuleWithVideos `json:"modules"`
}

// CourseService owns the course lifecycle: one storage namespace per course
// created with it, and the fixed-order cascade that removes it.
type CourseService interface {
	CreateCourse(ctx context.Context, instructorID, title, description, thumbnailBase64 string) (*domain.Course, error)
	GetCourse(ctx context.Context, id string) (*CourseDetail, error)
	ListCourses(ctx context.Context, viewerID string, limit, offset int) ([]CourseSummary, error)
	UpdateCourse(ctx context.Context, id, title, description string) error
	DeleteCourse(ctx context.Context, id string) error

	CreateModule(ctx context.Context, courseID, title string) (*domain.Module, error)
	DeleteModule(ctx context.Context, moduleID string) error
}

type courseService struct {
	courseRepo   repository.CourseRepository
	moduleRepo   repository.ModuleRepository
	videoRepo    repository.VideoRepository
	materialRepo repository.MaterialRepository
	learnerRepo  repository.LearnerRepository
	intentRepo   repository.IntentRepository
	fileStorage  storage.ObjectStorage

	region            string
	urlExpiry         time.Duration
	enrichConcurrency int
}

// NewCourseService creates a new instance of courseService.
func NewCourseService(
	courseRepo repository.CourseRepository,
	moduleRepo repository.ModuleRepository,
	videoRepo repository.VideoRepository,
	materialRepo repository.MaterialRepository,
	learnerRepo repository.LearnerRepository,
	intentRepo repository.IntentRepository,
	fileStorage storage.ObjectStorage,
	region string,
	urlExpiry time.Duration,
	enrichConcurrency int,
) CourseService {
	if enrichConcurrency <= 0 {
		enrichConcurrency = 8
	}
	return &courseService{
		courseRepo:        courseRepo,
		moduleRepo:        moduleRepo,
		videoRepo:         videoRepo,
		materialRepo:      materialRepo,
		learnerRepo:       learnerRepo,
		intentRepo:        intentRepo,
		fileStorage:       fileStorage,
		region:            region,
		urlExpiry:         urlExpiry,
		enrichConcurrency: enrichConcurrency,
	}
}

var dataURLPattern = regexp.MustCompile(`^data:(image/[a-z+.-]+);base64,(.+)$`)

// decodeDataURL splits a "data:image/...;base64," payload into bytes and
// content type.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	matches := dataURLPattern.FindStringSubmatch(dataURL)
	if len(matches) != 3 {
		return nil, "", ErrInvalidThumbnail
	}
	data, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return nil, "", ErrInvalidThumbnail
	}
	return data, matches[1], nil
}

// CreateCourse provisions the storage namespace first, then writes the course
// row carrying the namespace id. The two steps are sequential and
// non-transactional: if the catalog write fails, the namespace is orphaned,
// so a pending-delete intent is recorded for the reconciler to sweep.
func (s *courseService) CreateCourse(ctx context.Context, instructorID, title, description, thumbnailBase64 string) (*domain.Course, error) {
	if title == "" {
		return nil, errors.New("course title cannot be empty")
	}

	namespaceName := slug.Make(title)
	namespaceID, err := s.fileStorage.CreateNamespace(ctx, namespaceName, s.region, false)
	if err != nil {
		log.Printf("ERROR: Namespace creation failed for course '%s': %v", title, err)
		return nil, ErrNamespaceCreation
	}

	course := &domain.Course{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  description,
		InstructorID: instructorID,
		NamespaceID:  namespaceID,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		// The namespace now has no owning course row. Flag it for cleanup
		// instead of silently leaking it.
		recordIntent(ctx, s.intentRepo, domain.IntentPendingDelete, namespaceID, "", "")
		return nil, err
	}

	if thumbnailBase64 != "" {
		if err := s.uploadInlineThumbnail(ctx, course, namespaceName, thumbnailBase64); err != nil {
			// The course itself is created; a failed inline thumbnail is not
			// worth failing the whole operation for.
			log.Printf("WARN: Inline thumbnail upload failed for course %s: %v", course.ID, err)
		}
	}

	return course, nil
}

func (s *courseService) uploadInlineThumbnail(ctx context.Context, course *domain.Course, namespaceName, thumbnailBase64 string) error {
	data, contentType, err := decodeDataURL(thumbnailBase64)
	if err != nil {
		return err
	}

	target, err := s.fileStorage.GetUploadURL(ctx, course.NamespaceID, fmt.Sprintf("%s-thumbnail.png", namespaceName), "thumbnail", s.urlExpiry)
	if err != nil {
		return err
	}
	intentID := recordIntent(ctx, s.intentRepo, domain.IntentPendingUpload, course.NamespaceID, target.FileID, "")

	if err := uploadViaPresignedURL(ctx, target.UploadURL, data, contentType); err != nil {
		return err
	}

	err = s.materialRepo.CreateThumbnail(ctx, &domain.CourseThumbnail{
		ID:       uuid.New().String(),
		CourseID: course.ID,
		FileID:   target.FileID,
		Name:     fmt.Sprintf("%s-thumbnail.png", namespaceName),
	})
	if err != nil {
		return err
	}
	resolveIntent(ctx, s.intentRepo, intentID)
	return nil
}

func (s *courseService) GetCourse(ctx context.Context, id string) (*CourseDetail, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	modules, err := s.moduleRepo.ListByCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: *course, Modules: make([]ModuleWithVideos, 0, len(modules))}
	for _, module := range modules {
		videos, err := s.videoRepo.ListByModule(ctx, module.ID)
		if err != nil {
			return nil, err
		}
		detail.Modules = append(detail.Modules, ModuleWithVideos{Module: module, Videos: videos})
	}

	if thumbnail, err := s.materialRepo.LatestThumbnail(ctx, id); err == nil {
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, thumbnail.FileID, s.urlExpiry); err == nil {
			detail.ThumbnailURL = url
		}
	}

	return detail, nil
}

// ListCourses returns a page of courses enriched concurrently with thumbnail
// URLs and, when viewerID is set, enrollment/favorite flags. The fan-out is
// bounded so a large page cannot open unbounded concurrent storage calls.
func (s *courseService) ListCourses(ctx context.Context, viewerID string, limit, offset int) ([]CourseSummary, error) {
	courses, err := s.courseRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]CourseSummary, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)

	for i, course := range courses {
		i, course := i, course
		g.Go(func() error {
			summary := CourseSummary{Course: course}

			if thumbnail, err := s.materialRepo.LatestThumbnail(gctx, course.ID); err == nil {
				url, err := s.fileStorage.GeneratePresignedDownloadURL(gctx, thumbnail.FileID, s.urlExpiry)
				if err != nil {
					// Enrichment is decorative; a failed presign leaves the
					// item without a thumbnail rather than failing the page.
					log.Printf("WARN: Thumbnail presign failed for course %s: %v", course.ID, err)
				} else {
					summary.ThumbnailURL = url
				}
			}

			if viewerID != "" {
				if enrolled, err := s.learnerRepo.IsEnrolled(gctx, viewerID, course.ID); err == nil {
					summary.Enrolled = enrolled
				}
				if favorite, err := s.learnerRepo.IsFavorite(gctx, viewerID, course.ID); err == nil {
					summary.Favorite = favorite
				}
			}

			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, id, title, description string) error {
	err := s.courseRepo.Update(ctx, id, title, description)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCourseNotFound
	}
	return err
}

// DeleteCourse runs the fixed-order cascade: videos, then modules, then the
// remaining course-owned rows, then the course row itself, and finally the
// best-effort namespace delete. A namespace failure is logged and recorded as
// a pending-delete intent but never changes the reported outcome; the catalog
// is authoritative and must converge.
func (s *courseService) DeleteCourse(ctx context.Context, id string) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	moduleIDs, err := s.moduleRepo.IDsByCourse(ctx, id)
	if err != nil {
		return err
	}

	if err := s.videoRepo.DeleteByModuleIDs(ctx, moduleIDs); err != nil {
		return err
	}
	if err := s.moduleRepo.DeleteByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.materialRepo.DeleteMaterialsByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.materialRepo.DeleteThumbnailsByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.learnerRepo.DeleteEnrollmentsByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.learnerRepo.DeleteFavoritesByCourse(ctx, id); err != nil {
		return err
	}
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}

	if course.NamespaceID != "" {
		if err := s.fileStorage.DeleteNamespace(ctx, course.NamespaceID); err != nil {
			log.Printf("WARN: Failed to delete namespace %s for course %s: %v", course.NamespaceID, id, err)
			recordIntent(ctx, s.intentRepo, domain.IntentPendingDelete, course.NamespaceID, "", "")
		}
	}

	return nil
}

func (s *courseService) CreateModule(ctx context.Context, courseID, title string) (*domain.Module, error) {
	if title == "" {
		return nil, errors.New("module title cannot be empty")
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	module := &domain.Module{
		ID:       uuid.New().String(),
		CourseID: courseID,
		Title:    title,
	}
	if err := s.moduleRepo.Create(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// DeleteModule removes a standalone module: its video objects are batch
// deleted at storage first, and a storage failure aborts the whole operation.
// This is deliberately the opposite policy from namespace deletion, which can
// afford to be best-effort because the catalog rows are already gone.
func (s *courseService) DeleteModule(ctx context.Context, moduleID string) error {
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrModuleNotFound
		}
		return err
	}

	fileIDs, err := s.videoRepo.FileIDsByModule(ctx, moduleID)
	if err != nil {
		return err
	}
	if len(fileIDs) > 0 {
		if err := deleteObjectsGuarded(ctx, s.intentRepo, s.fileStorage, fileIDs); err != nil {
			log.Printf("ERROR: Storage delete failed for module %s, aborting row deletion: %v", moduleID, err)
			return ErrStorageDeleteFailed
		}
		if err := s.videoRepo.DeleteByModuleIDs(ctx, []string{moduleID}); err != nil {
			return err
		}
	}

	return s.moduleRepo.Delete(ctx, module.ID)
}
