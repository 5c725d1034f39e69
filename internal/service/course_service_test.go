package service

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lurnix/course-app/internal/domain"
)

type courseFixture struct {
	log       *callLog
	store     *fakeStorage
	courses   *fakeCourseRepo
	modules   *fakeModuleRepo
	videos    *fakeVideoRepo
	materials *fakeMaterialRepo
	learners  *fakeLearnerRepo
	intents   *fakeIntentRepo
	service   CourseService
}

func newCourseFixture() *courseFixture {
	log := &callLog{}
	f := &courseFixture{
		log:       log,
		store:     newFakeStorage(log),
		courses:   newFakeCourseRepo(log),
		modules:   newFakeModuleRepo(log),
		videos:    newFakeVideoRepo(log),
		materials: newFakeMaterialRepo(log),
		learners:  newFakeLearnerRepo(log),
		intents:   newFakeIntentRepo(),
	}
	f.service = NewCourseService(
		f.courses, f.modules, f.videos, f.materials, f.learners, f.intents,
		f.store, "us-east-1", time.Minute, 4,
	)
	return f
}

func (f *courseFixture) seedCourse(t *testing.T, title string) *domain.Course {
	t.Helper()
	course, err := f.service.CreateCourse(context.Background(), "instructor-1", title, "", "")
	require.NoError(t, err)
	return course
}

func TestCreateCourseProvisionsNamespace(t *testing.T) {
	f := newCourseFixture()

	course, err := f.service.CreateCourse(context.Background(), "instructor-1", "Go Basics!", "intro course", "")
	require.NoError(t, err)
	require.NotEmpty(t, course.ID)
	require.Equal(t, "ns-go-basics", course.NamespaceID)

	// The namespace name is derived from the title, slugified.
	require.Equal(t, []string{"go-basics"}, f.store.createdNamespaces)

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, course.NamespaceID, stored.NamespaceID)
}

func TestCreateCourseNamespaceFailureAbortsCreation(t *testing.T) {
	f := newCourseFixture()
	f.store.createNamespaceErr = errStorageDown

	_, err := f.service.CreateCourse(context.Background(), "instructor-1", "Go Basics", "", "")
	require.ErrorIs(t, err, ErrNamespaceCreation)
	require.Empty(t, f.courses.courses, "no catalog row without a namespace")
}

func TestCreateCourseCatalogFailureFlagsOrphanNamespace(t *testing.T) {
	f := newCourseFixture()
	f.courses.failCreate = errStorageDown

	_, err := f.service.CreateCourse(context.Background(), "instructor-1", "Go Basics", "", "")
	require.Error(t, err)

	// The namespace exists but no course row points at it; a pending-delete
	// intent flags it for the reconciler.
	pending := f.intents.pendingOfKind(domain.IntentPendingDelete)
	require.Len(t, pending, 1)
	require.Equal(t, "ns-go-basics", pending[0].NamespaceID)
	require.Empty(t, pending[0].FileID)
}

func TestCreateCourseWithInlineThumbnail(t *testing.T) {
	var uploaded []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = body
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newCourseFixture()
	f.store.uploadURL = server.URL

	payload := []byte("fake-png-bytes")
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	course, err := f.service.CreateCourse(context.Background(), "instructor-1", "Go Basics", "", dataURL)
	require.NoError(t, err)
	require.Equal(t, payload, uploaded)

	thumbnail, err := f.materials.LatestThumbnail(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, "go-basics-thumbnail.png", thumbnail.Name)
	require.NotEmpty(t, thumbnail.FileID)

	// The upload intent is resolved once the row exists.
	require.Empty(t, f.intents.pendingOfKind(domain.IntentPendingUpload))
}

func TestCreateCourseBadThumbnailStillCreatesCourse(t *testing.T) {
	f := newCourseFixture()

	course, err := f.service.CreateCourse(context.Background(), "instructor-1", "Go Basics", "", "not-a-data-url")
	require.NoError(t, err, "a failed inline thumbnail must not fail course creation")

	_, err = f.materials.LatestThumbnail(context.Background(), course.ID)
	require.Error(t, err)
}

func TestDeleteCourseCascadeOrder(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")

	module, err := f.service.CreateModule(context.Background(), course.ID, "Week 1")
	require.NoError(t, err)
	require.NoError(t, f.videos.Create(context.Background(), &domain.Video{
		ID: "v1", ModuleID: module.ID, FileID: course.NamespaceID + "/Week 1/intro.mp4",
	}))

	require.NoError(t, f.service.DeleteCourse(context.Background(), course.ID))

	// Children before parents, catalog before storage.
	order := []string{
		"videos.DeleteByModuleIDs",
		"modules.DeleteByCourse",
		"materials.DeleteByCourse",
		"thumbnails.DeleteByCourse",
		"enrollments.DeleteByCourse",
		"favorites.DeleteByCourse",
		"course.Delete",
		"storage.DeleteNamespace",
	}
	prev := -1
	for _, step := range order {
		idx := f.log.index(step)
		require.Greater(t, idx, prev, "step %s out of order (calls: %v)", step, f.log.calls)
		prev = idx
	}

	require.Empty(t, f.courses.courses)
	require.Empty(t, f.modules.modules)
	require.Empty(t, f.videos.videos)
	require.Equal(t, []string{course.NamespaceID}, f.store.deletedNamespaces)
}

func TestDeleteCourseNamespaceFailureStillSucceeds(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")
	f.store.deleteNamespaceErr = errStorageDown

	err := f.service.DeleteCourse(context.Background(), course.ID)
	require.NoError(t, err, "namespace deletion is best-effort")
	require.Empty(t, f.courses.courses, "catalog rows are gone regardless")

	pending := f.intents.pendingOfKind(domain.IntentPendingDelete)
	require.Len(t, pending, 1)
	require.Equal(t, course.NamespaceID, pending[0].NamespaceID)
}

func TestDeleteCourseNotFound(t *testing.T) {
	f := newCourseFixture()
	require.ErrorIs(t, f.service.DeleteCourse(context.Background(), "missing"), ErrCourseNotFound)
}

func TestDeleteModuleAbortsWhenStorageDeleteFails(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")
	module, err := f.service.CreateModule(context.Background(), course.ID, "Week 1")
	require.NoError(t, err)
	require.NoError(t, f.videos.Create(context.Background(), &domain.Video{
		ID: "v1", ModuleID: module.ID, FileID: course.NamespaceID + "/Week 1/intro.mp4",
	}))

	f.store.deleteObjectsErr = errStorageDown

	err = f.service.DeleteModule(context.Background(), module.ID)
	require.ErrorIs(t, err, ErrStorageDeleteFailed)

	// Opposite policy from the course cascade: nothing is deleted and the
	// delete intents stay pending for a later retry.
	require.Len(t, f.videos.videos, 1)
	require.Len(t, f.modules.modules, 1)
	require.NotEmpty(t, f.intents.pendingOfKind(domain.IntentPendingDelete))
}

func TestDeleteModuleRemovesVideosAndRows(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")
	module, err := f.service.CreateModule(context.Background(), course.ID, "Week 1")
	require.NoError(t, err)
	fileID := course.NamespaceID + "/Week 1/intro.mp4"
	require.NoError(t, f.videos.Create(context.Background(), &domain.Video{ID: "v1", ModuleID: module.ID, FileID: fileID}))

	require.NoError(t, f.service.DeleteModule(context.Background(), module.ID))

	require.Empty(t, f.videos.videos)
	require.Empty(t, f.modules.modules)
	require.Equal(t, [][]string{{fileID}}, f.store.deletedBatches)
	require.Empty(t, f.intents.pendingOfKind(domain.IntentPendingDelete), "delete intents resolved on success")
}

func TestCreateModuleAssignsSequentialOrder(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")

	first, err := f.service.CreateModule(context.Background(), course.ID, "Week 1")
	require.NoError(t, err)
	second, err := f.service.CreateModule(context.Background(), course.ID, "Week 2")
	require.NoError(t, err)

	require.Equal(t, 1, first.Order)
	require.Equal(t, 2, second.Order)
}

func TestCreateModuleUnknownCourse(t *testing.T) {
	f := newCourseFixture()
	_, err := f.service.CreateModule(context.Background(), "missing", "Week 1")
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestListCoursesEnrichesViewerFlags(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")

	require.NoError(t, f.learners.Enroll(context.Background(), "viewer-1", course.ID))
	require.NoError(t, f.learners.Favorite(context.Background(), "viewer-1", course.ID))
	require.NoError(t, f.materials.CreateThumbnail(context.Background(), &domain.CourseThumbnail{
		ID: "t1", CourseID: course.ID, FileID: course.NamespaceID + "/thumbnail/cover.png",
	}))

	summaries, err := f.service.ListCourses(context.Background(), "viewer-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.True(t, summaries[0].Enrolled)
	require.True(t, summaries[0].Favorite)
	require.NotEmpty(t, summaries[0].ThumbnailURL)

	// A different viewer sees the same page without the flags.
	summaries, err = f.service.ListCourses(context.Background(), "viewer-2", 20, 0)
	require.NoError(t, err)
	require.False(t, summaries[0].Enrolled)
	require.False(t, summaries[0].Favorite)
}

func TestGetCourseBundlesModulesAndVideos(t *testing.T) {
	f := newCourseFixture()
	course := f.seedCourse(t, "Go Basics")
	module, err := f.service.CreateModule(context.Background(), course.ID, "Week 1")
	require.NoError(t, err)
	require.NoError(t, f.videos.Create(context.Background(), &domain.Video{ID: "v1", ModuleID: module.ID, Title: "Intro"}))

	detail, err := f.service.GetCourse(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules, 1)
	require.Len(t, detail.Modules[0].Videos, 1)
	require.Equal(t, "Intro", detail.Modules[0].Videos[0].Title)
}
