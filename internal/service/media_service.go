package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrStorageDeleteFailed  = errors.New("storage delete failed")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
	ErrDownloadURLError     = errors.New("failed to generate download URL")
	ErrMultipartStartFailed = errors.New("failed to start multipart upload")
	ErrAssemblyFailed       = errors.New("failed to assemble multipart upload")
	ErrNamespaceMismatch    = errors.New("file does not belong to the course's namespace")
)

// MaterialWithURL decorates a material row with a short-lived download URL.
type MaterialWithURL struct {
	domain.CourseMaterial
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// ThumbnailWithURL decorates a thumbnail row with a short-lived download URL.
type ThumbnailWithURL struct {
	domain.CourseThumbnail
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// CompleteVideoInput carries everything needed to finalize a multipart
// video upload into a catalog row.
type CompleteVideoInput struct {
	FileID      string
	UploadID    string
	Parts       []storage.CompletedPart
	Title       string
	Description string
	Duration    int
}

// MediaService coordinates uploads between clients, the storage service and
// the catalog. Single-shot uploads (materials, thumbnails) are a presign
// followed by a separate save call with no verification in between; video
// uploads are multipart with the catalog row written only after storage
// confirms assembly.
type MediaService interface {
	// Single-shot protocol
	RequestMaterialUpload(ctx context.Context, courseID, name string) (*storage.UploadTarget, error)
	SaveMaterial(ctx context.Context, courseID, fileID, name, fileType, location string) (*domain.CourseMaterial, error)
	ListMaterials(ctx context.Context, courseID string) ([]MaterialWithURL, error)
	BulkDeleteMaterials(ctx context.Context, courseID string, materialIDs []string) error

	RequestThumbnailUpload(ctx context.Context, courseID, name string) (*storage.UploadTarget, error)
	SaveThumbnail(ctx context.Context, courseID, fileID, name string) (*domain.CourseThumbnail, error)
	ListThumbnails(ctx context.Context, courseID string) ([]ThumbnailWithURL, error)
	DeleteThumbnail(ctx context.Context, courseID, fileID string) error

	// RequestStagingUpload presigns into the shared staging namespace for
	// uploads that do not belong to any course yet.
	RequestStagingUpload(ctx context.Context, name string) (*storage.UploadTarget, error)
	EnsureStagingNamespace(ctx context.Context) error

	// Multipart protocol
	StartVideoUpload(ctx context.Context, moduleID, name string, size int64) (*storage.MultipartUpload, error)
	CompleteVideoUpload(ctx context.Context, moduleID string, input CompleteVideoInput) (*domain.Video, error)
	BulkDeleteVideos(ctx context.Context, moduleID string, fileIDs []string) error

	ListVideos(ctx context.Context, instructorID, query string, limit, offset int) ([]repository.VideoListing, error)
	VideoDownloadURL(ctx context.Context, fileID string) (string, error)
}

type mediaService struct {
	courseRepo   repository.CourseRepository
	moduleRepo   repository.ModuleRepository
	videoRepo    repository.VideoRepository
	materialRepo repository.MaterialRepository
	intentRepo   repository.IntentRepository
	fileStorage  storage.ObjectStorage

	region             string
	urlExpiry          time.Duration
	stagingNamespaceID string
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(
	courseRepo repository.CourseRepository,
	moduleRepo repository.ModuleRepository,
	videoRepo repository.VideoRepository,
	materialRepo repository.MaterialRepository,
	intentRepo repository.IntentRepository,
	fileStorage storage.ObjectStorage,
	region string,
	urlExpiry time.Duration,
) MediaService {
	return &mediaService{
		courseRepo:   courseRepo,
		moduleRepo:   moduleRepo,
		videoRepo:    videoRepo,
		materialRepo: materialRepo,
		intentRepo:   intentRepo,
		fileStorage:  fileStorage,
		region:       region,
		urlExpiry:    urlExpiry,
	}
}

// EnsureStagingNamespace creates the shared staging namespace once at
// startup. Course-independent presigns land here instead of provisioning a
// throwaway namespace per request.
func (s *mediaService) EnsureStagingNamespace(ctx context.Context) error {
	if s.stagingNamespaceID != "" {
		return nil
	}
	namespaceID, err := s.fileStorage.CreateNamespace(ctx, "staging", s.region, false)
	if err != nil {
		return err
	}
	s.stagingNamespaceID = namespaceID
	log.Printf("INFO: Staging namespace ready: %s", namespaceID)
	return nil
}

func (s *mediaService) namespaceForCourse(ctx context.Context, courseID string) (string, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrCourseNotFound
		}
		return "", err
	}
	return course.NamespaceID, nil
}

// RequestMaterialUpload presigns a single-shot upload into the course
// namespace. Nothing verifies the client ever uploads; a client that takes
// the URL and walks away leaves a pending intent for the reconciler.
func (s *mediaService) RequestMaterialUpload(ctx context.Context, courseID, name string) (*storage.UploadTarget, error) {
	namespaceID, err := s.namespaceForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	target, err := s.fileStorage.GetUploadURL(ctx, namespaceID, name, "materials", s.urlExpiry)
	if err != nil {
		log.Printf("ERROR: Material presign failed for course %s: %v", courseID, err)
		return nil, ErrUploadURLError
	}
	recordIntent(ctx, s.intentRepo, domain.IntentPendingUpload, namespaceID, target.FileID, "")
	return target, nil
}

// SaveMaterial writes the metadata row for a previously presigned upload.
// There is no check that the object exists; a save without an upload leaves a
// row pointing at nothing. Both dangling shapes are accepted by design.
func (s *mediaService) SaveMaterial(ctx context.Context, courseID, fileID, name, fileType, location string) (*domain.CourseMaterial, error) {
	if _, err := s.namespaceForCourse(ctx, courseID); err != nil {
		return nil, err
	}

	material := &domain.CourseMaterial{
		ID:       uuid.New().String(),
		CourseID: courseID,
		FileID:   fileID,
		Name:     name,
		FileType: fileType,
		Location: location,
	}
	if err := s.materialRepo.CreateMaterial(ctx, material); err != nil {
		return nil, err
	}
	if err := s.intentRepo.MarkResolvedByFileID(ctx, fileID); err != nil {
		log.Printf("WARN: Failed to resolve upload intent for %s: %v", fileID, err)
	}
	return material, nil
}

func (s *mediaService) ListMaterials(ctx context.Context, courseID string) ([]MaterialWithURL, error) {
	materials, err := s.materialRepo.ListMaterials(ctx, courseID)
	if err != nil {
		return nil, err
	}

	out := make([]MaterialWithURL, 0, len(materials))
	for _, material := range materials {
		item := MaterialWithURL{CourseMaterial: material}
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, material.FileID, s.urlExpiry); err == nil {
			item.DownloadURL = url
		}
		out = append(out, item)
	}
	return out, nil
}

// BulkDeleteMaterials deletes the targeted rows and their storage objects.
// The storage batch delete goes first and its failure aborts the row
// deletion: this path can retry per object later, unlike a namespace delete.
func (s *mediaService) BulkDeleteMaterials(ctx context.Context, courseID string, materialIDs []string) error {
	fileIDs, err := s.materialRepo.MaterialFileIDs(ctx, courseID, materialIDs)
	if err != nil {
		return err
	}

	if len(fileIDs) > 0 {
		if err := deleteObjectsGuarded(ctx, s.intentRepo, s.fileStorage, fileIDs); err != nil {
			log.Printf("ERROR: Storage delete failed for course %s materials, aborting: %v", courseID, err)
			return ErrStorageDeleteFailed
		}
	}

	return s.materialRepo.DeleteMaterials(ctx, courseID, materialIDs)
}

func (s *mediaService) RequestThumbnailUpload(ctx context.Context, courseID, name string) (*storage.UploadTarget, error) {
	namespaceID, err := s.namespaceForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	target, err := s.fileStorage.GetUploadURL(ctx, namespaceID, name, "thumbnail", s.urlExpiry)
	if err != nil {
		log.Printf("ERROR: Thumbnail presign failed for course %s: %v", courseID, err)
		return nil, ErrUploadURLError
	}
	recordIntent(ctx, s.intentRepo, domain.IntentPendingUpload, namespaceID, target.FileID, "")
	return target, nil
}

func (s *mediaService) SaveThumbnail(ctx context.Context, courseID, fileID, name string) (*domain.CourseThumbnail, error) {
	if _, err := s.namespaceForCourse(ctx, courseID); err != nil {
		return nil, err
	}

	thumbnail := &domain.CourseThumbnail{
		ID:       uuid.New().String(),
		CourseID: courseID,
		FileID:   fileID,
		Name:     name,
	}
	if err := s.materialRepo.CreateThumbnail(ctx, thumbnail); err != nil {
		return nil, err
	}
	if err := s.intentRepo.MarkResolvedByFileID(ctx, fileID); err != nil {
		log.Printf("WARN: Failed to resolve upload intent for %s: %v", fileID, err)
	}
	return thumbnail, nil
}

func (s *mediaService) ListThumbnails(ctx context.Context, courseID string) ([]ThumbnailWithURL, error) {
	thumbnails, err := s.materialRepo.ListThumbnails(ctx, courseID)
	if err != nil {
		return nil, err
	}

	out := make([]ThumbnailWithURL, 0, len(thumbnails))
	for _, thumbnail := range thumbnails {
		item := ThumbnailWithURL{CourseThumbnail: thumbnail}
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, thumbnail.FileID, s.urlExpiry); err == nil {
			item.DownloadURL = url
		}
		out = append(out, item)
	}
	return out, nil
}

// DeleteThumbnail removes one thumbnail, storage object first. A storage
// failure aborts the row deletion, same policy as material bulk deletes.
func (s *mediaService) DeleteThumbnail(ctx context.Context, courseID, fileID string) error {
	if err := deleteObjectsGuarded(ctx, s.intentRepo, s.fileStorage, []string{fileID}); err != nil {
		log.Printf("ERROR: Storage delete failed for thumbnail %s, aborting: %v", fileID, err)
		return ErrStorageDeleteFailed
	}
	err := s.materialRepo.DeleteThumbnailByFileID(ctx, courseID, fileID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCourseNotFound
	}
	return err
}

func (s *mediaService) RequestStagingUpload(ctx context.Context, name string) (*storage.UploadTarget, error) {
	if s.stagingNamespaceID == "" {
		return nil, errors.New("staging namespace not initialized")
	}
	target, err := s.fileStorage.GetUploadURL(ctx, s.stagingNamespaceID, name, "thumbnail", s.urlExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	recordIntent(ctx, s.intentRepo, domain.IntentPendingUpload, s.stagingNamespaceID, target.FileID, "")
	return target, nil
}

// StartVideoUpload initiates a multipart upload into the namespace owned by
// the module's course. Part uploads happen entirely between the client and
// storage; this service sees only initiation and completion. The pending
// intent carries {namespace, fileId, uploadId} so an external sweep can find
// and abort abandoned uploads.
func (s *mediaService) StartVideoUpload(ctx context.Context, moduleID, name string, size int64) (*storage.MultipartUpload, error) {
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	namespaceID, err := s.namespaceForCourse(ctx, module.CourseID)
	if err != nil {
		return nil, err
	}

	upload, err := s.fileStorage.StartMultipartUpload(ctx, namespaceID, name, size, module.Title, s.urlExpiry)
	if err != nil {
		log.Printf("ERROR: Multipart start failed for module %s: %v", moduleID, err)
		return nil, ErrMultipartStartFailed
	}

	recordIntent(ctx, s.intentRepo, domain.IntentPendingUpload, namespaceID, upload.FileID, upload.UploadID)
	return upload, nil
}

// CompleteVideoUpload asks storage to assemble the parts and, only if that
// succeeds, writes the Video row. A failed assembly leaves no catalog row.
func (s *mediaService) CompleteVideoUpload(ctx context.Context, moduleID string, input CompleteVideoInput) (*domain.Video, error) {
	module, err := s.moduleRepo.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	namespaceID, err := s.namespaceForCourse(ctx, module.CourseID)
	if err != nil {
		return nil, err
	}
	// The fileId names its namespace; refuse completions against a namespace
	// the module's course does not own.
	fileNamespace, _, err := storage.SplitFileID(input.FileID)
	if err != nil {
		return nil, err
	}
	if fileNamespace != namespaceID {
		log.Printf("WARN: Rejected video completion for %s: namespace %s does not belong to course %s", input.FileID, fileNamespace, module.CourseID)
		return nil, ErrNamespaceMismatch
	}

	if err := s.fileStorage.CompleteMultipartUpload(ctx, input.FileID, input.UploadID, input.Parts); err != nil {
		log.Printf("ERROR: Multipart assembly failed for %s: %v", input.FileID, err)
		return nil, ErrAssemblyFailed
	}

	video := &domain.Video{
		ID:          uuid.New().String(),
		ModuleID:    moduleID,
		Title:       input.Title,
		Description: input.Description,
		FileID:      input.FileID,
		Duration:    input.Duration,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}
	if err := s.intentRepo.MarkResolvedByFileID(ctx, input.FileID); err != nil {
		log.Printf("WARN: Failed to resolve upload intent for %s: %v", input.FileID, err)
	}
	return video, nil
}

// BulkDeleteVideos removes video rows under a module by their storage file
// ids, storage batch delete first, abort on failure.
func (s *mediaService) BulkDeleteVideos(ctx context.Context, moduleID string, fileIDs []string) error {
	if err := deleteObjectsGuarded(ctx, s.intentRepo, s.fileStorage, fileIDs); err != nil {
		log.Printf("ERROR: Storage delete failed for module %s videos, aborting: %v", moduleID, err)
		return ErrStorageDeleteFailed
	}
	return s.videoRepo.DeleteByFileIDs(ctx, moduleID, fileIDs)
}

// ListVideos returns the instructor's video library page with thumbnail URLs
// resolved per item.
func (s *mediaService) ListVideos(ctx context.Context, instructorID, query string, limit, offset int) ([]repository.VideoListing, error) {
	listings, err := s.videoRepo.Search(ctx, instructorID, query, limit, offset)
	if err != nil {
		return nil, err
	}

	for i := range listings {
		if listings[i].ThumbnailFileID == "" {
			continue
		}
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, listings[i].ThumbnailFileID, s.urlExpiry)
		if err != nil {
			log.Printf("WARN: Thumbnail presign failed for video %s: %v", listings[i].ID, err)
			continue
		}
		listings[i].ThumbnailURL = url
	}
	return listings, nil
}

func (s *mediaService) VideoDownloadURL(ctx context.Context, fileID string) (string, error) {
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, fileID, s.urlExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return url, nil
}
