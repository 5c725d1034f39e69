package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/storage"
)

// callLog records catalog and storage calls in order, shared across the fakes
// so tests can assert cascade ordering.
type callLog struct {
	calls []string
}

func (l *callLog) record(name string) {
	l.calls = append(l.calls, name)
}

func (l *callLog) index(name string) int {
	for i, call := range l.calls {
		if call == name {
			return i
		}
	}
	return -1
}

// --- Object Storage Fake ---

type fakeStorage struct {
	log *callLog

	createNamespaceErr error
	deleteNamespaceErr error
	deleteObjectsErr   error
	deleteObjectErr    error
	completeErr        error
	abortErr           error
	presignErr         error

	// uploadURL / downloadURL override the fake's generated URLs, used when a
	// test wants real HTTP traffic against an httptest server.
	uploadURL   string
	downloadURL string

	createdNamespaces []string
	deletedNamespaces []string
	deletedBatches    [][]string
	deletedObjects    []string
	abortedUploads    []string
	completedUploads  []string
	partSize          int64
}

func newFakeStorage(log *callLog) *fakeStorage {
	return &fakeStorage{log: log, partSize: 8 * 1024 * 1024}
}

func (s *fakeStorage) CreateNamespace(_ context.Context, name, _ string, _ bool) (string, error) {
	if s.createNamespaceErr != nil {
		return "", s.createNamespaceErr
	}
	s.createdNamespaces = append(s.createdNamespaces, name)
	return "ns-" + name, nil
}

func (s *fakeStorage) DeleteNamespace(_ context.Context, namespaceID string) error {
	s.log.record("storage.DeleteNamespace")
	if s.deleteNamespaceErr != nil {
		return s.deleteNamespaceErr
	}
	s.deletedNamespaces = append(s.deletedNamespaces, namespaceID)
	return nil
}

func (s *fakeStorage) GetUploadURL(_ context.Context, namespaceID, name, location string, _ time.Duration) (*storage.UploadTarget, error) {
	if s.presignErr != nil {
		return nil, s.presignErr
	}
	fileID := storage.MakeFileID(namespaceID, location+"/"+name)
	uploadURL := s.uploadURL
	if uploadURL == "" {
		uploadURL = "https://storage.example.com/put/" + fileID
	}
	return &storage.UploadTarget{FileID: fileID, UploadURL: uploadURL}, nil
}

func (s *fakeStorage) StartMultipartUpload(_ context.Context, namespaceID, name string, size int64, location string, _ time.Duration) (*storage.MultipartUpload, error) {
	if s.presignErr != nil {
		return nil, s.presignErr
	}
	partCount := storage.PlanPartCount(size, s.partSize)
	urls := make([]string, partCount)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://storage.example.com/part/%d", i+1)
	}
	return &storage.MultipartUpload{
		FileID:    storage.MakeFileID(namespaceID, location+"/"+name),
		UploadID:  "upload-1",
		PartSize:  s.partSize,
		PartCount: partCount,
		PartURLs:  urls,
	}, nil
}

func (s *fakeStorage) CompleteMultipartUpload(_ context.Context, fileID, uploadID string, _ []storage.CompletedPart) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completedUploads = append(s.completedUploads, uploadID)
	return nil
}

func (s *fakeStorage) AbortMultipartUpload(_ context.Context, _, uploadID string) error {
	if s.abortErr != nil {
		return s.abortErr
	}
	s.abortedUploads = append(s.abortedUploads, uploadID)
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, fileID string, _ time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	if s.downloadURL != "" {
		return s.downloadURL, nil
	}
	return "https://storage.example.com/get/" + fileID, nil
}

func (s *fakeStorage) GenerateOverwriteURL(_ context.Context, fileID string, _ time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	if s.uploadURL != "" {
		return s.uploadURL, nil
	}
	return "https://storage.example.com/put/" + fileID, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, fileID string) error {
	if s.deleteObjectErr != nil {
		return s.deleteObjectErr
	}
	s.deletedObjects = append(s.deletedObjects, fileID)
	return nil
}

func (s *fakeStorage) DeleteObjects(_ context.Context, fileIDs []string) error {
	s.log.record("storage.DeleteObjects")
	if s.deleteObjectsErr != nil {
		return s.deleteObjectsErr
	}
	s.deletedBatches = append(s.deletedBatches, fileIDs)
	return nil
}

// --- Repository Fakes ---

type fakeCourseRepo struct {
	log        *callLog
	courses    map[string]*domain.Course
	failCreate error
}

func newFakeCourseRepo(log *callLog) *fakeCourseRepo {
	return &fakeCourseRepo{log: log, courses: map[string]*domain.Course{}}
}

func (r *fakeCourseRepo) Create(_ context.Context, course *domain.Course) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	copied := *course
	r.courses[course.ID] = &copied
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*domain.Course, error) {
	if course, ok := r.courses[id]; ok {
		return course, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCourseRepo) List(_ context.Context, limit, offset int) ([]domain.Course, error) {
	out := make([]domain.Course, 0, len(r.courses))
	for _, course := range r.courses {
		out = append(out, *course)
	}
	return out, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, id, title, description string) error {
	course, ok := r.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	course.Title = title
	course.Description = description
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, id string) error {
	r.log.record("course.Delete")
	if _, ok := r.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.courses, id)
	return nil
}

type fakeModuleRepo struct {
	log     *callLog
	modules map[string]*domain.Module
}

func newFakeModuleRepo(log *callLog) *fakeModuleRepo {
	return &fakeModuleRepo{log: log, modules: map[string]*domain.Module{}}
}

func (r *fakeModuleRepo) Create(_ context.Context, module *domain.Module) error {
	maxOrder := 0
	for _, m := range r.modules {
		if m.CourseID == module.CourseID && m.Order > maxOrder {
			maxOrder = m.Order
		}
	}
	module.Order = maxOrder + 1
	copied := *module
	r.modules[module.ID] = &copied
	return nil
}

func (r *fakeModuleRepo) GetByID(_ context.Context, id string) (*domain.Module, error) {
	if module, ok := r.modules[id]; ok {
		return module, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeModuleRepo) ListByCourse(_ context.Context, courseID string) ([]domain.Module, error) {
	out := []domain.Module{}
	for _, module := range r.modules {
		if module.CourseID == courseID {
			out = append(out, *module)
		}
	}
	return out, nil
}

func (r *fakeModuleRepo) IDsByCourse(_ context.Context, courseID string) ([]string, error) {
	ids := []string{}
	for _, module := range r.modules {
		if module.CourseID == courseID {
			ids = append(ids, module.ID)
		}
	}
	return ids, nil
}

func (r *fakeModuleRepo) Delete(_ context.Context, id string) error {
	r.log.record("module.Delete")
	delete(r.modules, id)
	return nil
}

func (r *fakeModuleRepo) DeleteByCourse(_ context.Context, courseID string) error {
	r.log.record("modules.DeleteByCourse")
	for id, module := range r.modules {
		if module.CourseID == courseID {
			delete(r.modules, id)
		}
	}
	return nil
}

type fakeVideoRepo struct {
	log      *callLog
	videos   map[string]*domain.Video
	listings []repository.VideoListing
}

func newFakeVideoRepo(log *callLog) *fakeVideoRepo {
	return &fakeVideoRepo{log: log, videos: map[string]*domain.Video{}}
}

func (r *fakeVideoRepo) Create(_ context.Context, video *domain.Video) error {
	copied := *video
	r.videos[video.ID] = &copied
	return nil
}

func (r *fakeVideoRepo) ListByModule(_ context.Context, moduleID string) ([]domain.Video, error) {
	out := []domain.Video{}
	for _, video := range r.videos {
		if video.ModuleID == moduleID {
			out = append(out, *video)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) FileIDsByModule(_ context.Context, moduleID string) ([]string, error) {
	ids := []string{}
	for _, video := range r.videos {
		if video.ModuleID == moduleID {
			ids = append(ids, video.FileID)
		}
	}
	return ids, nil
}

func (r *fakeVideoRepo) DeleteByModuleIDs(_ context.Context, moduleIDs []string) error {
	r.log.record("videos.DeleteByModuleIDs")
	for _, moduleID := range moduleIDs {
		for id, video := range r.videos {
			if video.ModuleID == moduleID {
				delete(r.videos, id)
			}
		}
	}
	return nil
}

func (r *fakeVideoRepo) DeleteByFileIDs(_ context.Context, moduleID string, fileIDs []string) error {
	r.log.record("videos.DeleteByFileIDs")
	for _, fileID := range fileIDs {
		for id, video := range r.videos {
			if video.ModuleID == moduleID && video.FileID == fileID {
				delete(r.videos, id)
			}
		}
	}
	return nil
}

func (r *fakeVideoRepo) Search(_ context.Context, _, _ string, _, _ int) ([]repository.VideoListing, error) {
	return r.listings, nil
}

type fakeMaterialRepo struct {
	log        *callLog
	materials  map[string]*domain.CourseMaterial
	thumbnails []*domain.CourseThumbnail
}

func newFakeMaterialRepo(log *callLog) *fakeMaterialRepo {
	return &fakeMaterialRepo{log: log, materials: map[string]*domain.CourseMaterial{}}
}

func (r *fakeMaterialRepo) CreateMaterial(_ context.Context, m *domain.CourseMaterial) error {
	copied := *m
	r.materials[m.ID] = &copied
	return nil
}

func (r *fakeMaterialRepo) ListMaterials(_ context.Context, courseID string) ([]domain.CourseMaterial, error) {
	out := []domain.CourseMaterial{}
	for _, m := range r.materials {
		if m.CourseID == courseID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) MaterialFileIDs(_ context.Context, courseID string, materialIDs []string) ([]string, error) {
	ids := []string{}
	for _, materialID := range materialIDs {
		if m, ok := r.materials[materialID]; ok && m.CourseID == courseID {
			ids = append(ids, m.FileID)
		}
	}
	return ids, nil
}

func (r *fakeMaterialRepo) DeleteMaterials(_ context.Context, courseID string, materialIDs []string) error {
	r.log.record("materials.Delete")
	for _, materialID := range materialIDs {
		if m, ok := r.materials[materialID]; ok && m.CourseID == courseID {
			delete(r.materials, materialID)
		}
	}
	return nil
}

func (r *fakeMaterialRepo) DeleteMaterialsByCourse(_ context.Context, courseID string) error {
	r.log.record("materials.DeleteByCourse")
	for id, m := range r.materials {
		if m.CourseID == courseID {
			delete(r.materials, id)
		}
	}
	return nil
}

func (r *fakeMaterialRepo) CreateThumbnail(_ context.Context, t *domain.CourseThumbnail) error {
	copied := *t
	r.thumbnails = append(r.thumbnails, &copied)
	return nil
}

func (r *fakeMaterialRepo) ListThumbnails(_ context.Context, courseID string) ([]domain.CourseThumbnail, error) {
	out := []domain.CourseThumbnail{}
	for _, t := range r.thumbnails {
		if t.CourseID == courseID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) LatestThumbnail(_ context.Context, courseID string) (*domain.CourseThumbnail, error) {
	for i := len(r.thumbnails) - 1; i >= 0; i-- {
		if r.thumbnails[i].CourseID == courseID {
			return r.thumbnails[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeMaterialRepo) DeleteThumbnailByFileID(_ context.Context, courseID, fileID string) error {
	r.log.record("thumbnail.Delete")
	for i, t := range r.thumbnails {
		if t.CourseID == courseID && t.FileID == fileID {
			r.thumbnails = append(r.thumbnails[:i], r.thumbnails[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeMaterialRepo) DeleteThumbnailsByCourse(_ context.Context, courseID string) error {
	r.log.record("thumbnails.DeleteByCourse")
	kept := r.thumbnails[:0]
	for _, t := range r.thumbnails {
		if t.CourseID != courseID {
			kept = append(kept, t)
		}
	}
	r.thumbnails = kept
	return nil
}

type pairKey struct{ userID, itemID string }

type fakeLearnerRepo struct {
	log         *callLog
	enrollments map[pairKey]bool
	favorites   map[pairKey]bool
	progress    map[pairKey]*domain.VideoProgress
}

func newFakeLearnerRepo(log *callLog) *fakeLearnerRepo {
	return &fakeLearnerRepo{
		log:         log,
		enrollments: map[pairKey]bool{},
		favorites:   map[pairKey]bool{},
		progress:    map[pairKey]*domain.VideoProgress{},
	}
}

func (r *fakeLearnerRepo) Enroll(_ context.Context, userID, courseID string) error {
	r.enrollments[pairKey{userID, courseID}] = true
	return nil
}

func (r *fakeLearnerRepo) Favorite(_ context.Context, userID, courseID string) error {
	r.favorites[pairKey{userID, courseID}] = true
	return nil
}

func (r *fakeLearnerRepo) Unfavorite(_ context.Context, userID, courseID string) error {
	delete(r.favorites, pairKey{userID, courseID})
	return nil
}

func (r *fakeLearnerRepo) IsEnrolled(_ context.Context, userID, courseID string) (bool, error) {
	return r.enrollments[pairKey{userID, courseID}], nil
}

func (r *fakeLearnerRepo) IsFavorite(_ context.Context, userID, courseID string) (bool, error) {
	return r.favorites[pairKey{userID, courseID}], nil
}

func (r *fakeLearnerRepo) DeleteEnrollmentsByCourse(_ context.Context, courseID string) error {
	r.log.record("enrollments.DeleteByCourse")
	for key := range r.enrollments {
		if key.itemID == courseID {
			delete(r.enrollments, key)
		}
	}
	return nil
}

func (r *fakeLearnerRepo) DeleteFavoritesByCourse(_ context.Context, courseID string) error {
	r.log.record("favorites.DeleteByCourse")
	for key := range r.favorites {
		if key.itemID == courseID {
			delete(r.favorites, key)
		}
	}
	return nil
}

func (r *fakeLearnerRepo) UpsertProgress(_ context.Context, p *domain.VideoProgress, monotonic bool) error {
	key := pairKey{p.UserID, p.VideoID}
	existing, ok := r.progress[key]
	if !ok || !monotonic {
		copied := *p
		r.progress[key] = &copied
		return nil
	}
	if p.WatchedSeconds > existing.WatchedSeconds {
		existing.WatchedSeconds = p.WatchedSeconds
	}
	existing.Completed = existing.Completed || p.Completed
	return nil
}

func (r *fakeLearnerRepo) GetProgress(_ context.Context, userID, videoID string) (*domain.VideoProgress, error) {
	if p, ok := r.progress[pairKey{userID, videoID}]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type fakeIntentRepo struct {
	intents map[string]*domain.StorageIntent
}

func newFakeIntentRepo() *fakeIntentRepo {
	return &fakeIntentRepo{intents: map[string]*domain.StorageIntent{}}
}

func (r *fakeIntentRepo) Create(_ context.Context, intent *domain.StorageIntent) error {
	copied := *intent
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	r.intents[intent.ID] = &copied
	return nil
}

func (r *fakeIntentRepo) MarkResolved(_ context.Context, id string) error {
	return r.setStatus(id, domain.IntentStatusResolved)
}

func (r *fakeIntentRepo) MarkAborted(_ context.Context, id string) error {
	return r.setStatus(id, domain.IntentStatusAborted)
}

func (r *fakeIntentRepo) setStatus(id string, status domain.IntentStatus) error {
	intent, ok := r.intents[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	intent.Status = status
	intent.ResolvedAt = &now
	return nil
}

func (r *fakeIntentRepo) MarkResolvedByFileID(_ context.Context, fileID string) error {
	for _, intent := range r.intents {
		if intent.FileID == fileID && intent.Status == domain.IntentStatusPending {
			now := time.Now()
			intent.Status = domain.IntentStatusResolved
			intent.ResolvedAt = &now
		}
	}
	return nil
}

func (r *fakeIntentRepo) ListStalePending(_ context.Context, cutoff time.Time) ([]domain.StorageIntent, error) {
	out := []domain.StorageIntent{}
	for _, intent := range r.intents {
		if intent.Status == domain.IntentStatusPending && intent.CreatedAt.Before(cutoff) {
			out = append(out, *intent)
		}
	}
	return out, nil
}

func (r *fakeIntentRepo) byStatus(status domain.IntentStatus) []*domain.StorageIntent {
	out := []*domain.StorageIntent{}
	for _, intent := range r.intents {
		if intent.Status == status {
			out = append(out, intent)
		}
	}
	return out
}

func (r *fakeIntentRepo) pendingOfKind(kind domain.IntentKind) []*domain.StorageIntent {
	out := []*domain.StorageIntent{}
	for _, intent := range r.byStatus(domain.IntentStatusPending) {
		if intent.Kind == kind {
			out = append(out, intent)
		}
	}
	return out
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.ExternalID == user.ExternalID {
			return repository.ErrConflict
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, update repository.ProfileUpdate) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Website != nil {
		user.Website = *update.Website
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	return nil
}

func (r *fakeUserRepo) GetByExternalIDOrEmail(_ context.Context, externalID, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.ExternalID == externalID || user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

var errStorageDown = errors.New("storage unavailable")
