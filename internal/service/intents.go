package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/storage"
)

// recordIntent writes a write-ahead intent row before an external storage
// call. Intent bookkeeping failures are logged and swallowed: the intent
// ledger improves recoverability but must never block the operation itself.
func recordIntent(ctx context.Context, intents repository.IntentRepository, kind domain.IntentKind, namespaceID, fileID, uploadID string) string {
	intent := &domain.StorageIntent{
		ID:          uuid.New().String(),
		Kind:        kind,
		Status:      domain.IntentStatusPending,
		NamespaceID: namespaceID,
		FileID:      fileID,
		UploadID:    uploadID,
	}
	if err := intents.Create(ctx, intent); err != nil {
		log.Printf("WARN: Failed to record %s intent for %s: %v", kind, fileID, err)
		return ""
	}
	return intent.ID
}

// resolveIntent marks a previously recorded intent as resolved.
func resolveIntent(ctx context.Context, intents repository.IntentRepository, intentID string) {
	if intentID == "" {
		return
	}
	if err := intents.MarkResolved(ctx, intentID); err != nil {
		log.Printf("WARN: Failed to resolve intent %s: %v", intentID, err)
	}
}

// deleteObjectsGuarded issues one batched storage delete for the given file
// ids, with a pending-delete intent per object written first. On success all
// intents are resolved; on failure they stay pending so the reconciler can
// retry, and the error is returned so the caller can abort its row deletion.
func deleteObjectsGuarded(ctx context.Context, intents repository.IntentRepository, store storage.ObjectStorage, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}

	intentIDs := make([]string, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		namespaceID, _, err := storage.SplitFileID(fileID)
		if err != nil {
			namespaceID = ""
		}
		intentIDs = append(intentIDs, recordIntent(ctx, intents, domain.IntentPendingDelete, namespaceID, fileID, ""))
	}

	if err := store.DeleteObjects(ctx, fileIDs); err != nil {
		return err
	}

	for _, intentID := range intentIDs {
		resolveIntent(ctx, intents, intentID)
	}
	return nil
}
