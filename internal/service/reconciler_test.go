package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lurnix/course-app/internal/domain"
)

func staleIntent(kind domain.IntentKind, namespaceID, fileID, uploadID string) *domain.StorageIntent {
	return &domain.StorageIntent{
		ID:          "intent-" + string(kind) + "-" + fileID + uploadID,
		Kind:        kind,
		Status:      domain.IntentStatusPending,
		NamespaceID: namespaceID,
		FileID:      fileID,
		UploadID:    uploadID,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	}
}

func newReconcilerFixture() (*fakeIntentRepo, *fakeStorage, *Reconciler) {
	intents := newFakeIntentRepo()
	store := newFakeStorage(&callLog{})
	reconciler := NewReconciler(intents, store, time.Minute, time.Hour)
	return intents, store, reconciler
}

func TestSweepAbortsAbandonedMultipartUpload(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	intent := staleIntent(domain.IntentPendingUpload, "ns-1", "ns-1/Week 1/intro.mp4", "upload-9")
	require.NoError(t, intents.Create(context.Background(), intent))

	reconciler.Sweep(context.Background())

	require.Equal(t, []string{"upload-9"}, store.abortedUploads)
	require.Len(t, intents.byStatus(domain.IntentStatusAborted), 1)
}

func TestSweepRemovesOrphanedSingleShotUpload(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	intent := staleIntent(domain.IntentPendingUpload, "ns-1", "ns-1/materials/notes.pdf", "")
	require.NoError(t, intents.Create(context.Background(), intent))

	reconciler.Sweep(context.Background())

	require.Equal(t, []string{"ns-1/materials/notes.pdf"}, store.deletedObjects)
	require.Len(t, intents.byStatus(domain.IntentStatusAborted), 1)
}

func TestSweepRetriesObjectDelete(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	intent := staleIntent(domain.IntentPendingDelete, "ns-1", "ns-1/materials/notes.pdf", "")
	require.NoError(t, intents.Create(context.Background(), intent))

	reconciler.Sweep(context.Background())

	require.Equal(t, []string{"ns-1/materials/notes.pdf"}, store.deletedObjects)
	require.Len(t, intents.byStatus(domain.IntentStatusResolved), 1)
}

func TestSweepRetriesNamespaceDelete(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	// No file id: the whole namespace is the target.
	intent := staleIntent(domain.IntentPendingDelete, "ns-orphan", "", "")
	require.NoError(t, intents.Create(context.Background(), intent))

	reconciler.Sweep(context.Background())

	require.Equal(t, []string{"ns-orphan"}, store.deletedNamespaces)
	require.Len(t, intents.byStatus(domain.IntentStatusResolved), 1)
}

func TestSweepLeavesFailedWorkPending(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	intent := staleIntent(domain.IntentPendingDelete, "ns-1", "ns-1/materials/notes.pdf", "")
	require.NoError(t, intents.Create(context.Background(), intent))
	store.deleteObjectErr = errStorageDown

	reconciler.Sweep(context.Background())

	// Still pending; the next sweep retries.
	require.Len(t, intents.byStatus(domain.IntentStatusPending), 1)
}

func TestSweepSkipsFreshIntents(t *testing.T) {
	intents, store, reconciler := newReconcilerFixture()
	intent := staleIntent(domain.IntentPendingUpload, "ns-1", "ns-1/materials/notes.pdf", "")
	intent.CreatedAt = time.Now() // not stale yet
	require.NoError(t, intents.Create(context.Background(), intent))

	reconciler.Sweep(context.Background())

	require.Empty(t, store.deletedObjects)
	require.Len(t, intents.byStatus(domain.IntentStatusPending), 1)
}
