package service

import (
	"context"
	"log"
	"time"

	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/storage"
)

// Reconciler sweeps stale pending intents in the background. It is the
// recovery path for the catalog/storage non-atomicity: abandoned multipart
// uploads are aborted, presigned-but-never-saved objects are removed, and
// best-effort deletes that failed are retried. Everything here is
// single-attempt per sweep; whatever still fails stays pending for the next
// round.
type Reconciler struct {
	intentRepo  repository.IntentRepository
	fileStorage storage.ObjectStorage
	interval    time.Duration
	staleAfter  time.Duration
}

// NewReconciler creates a reconciler with the given sweep cadence.
func NewReconciler(intentRepo repository.IntentRepository, fileStorage storage.ObjectStorage, interval, staleAfter time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &Reconciler{
		intentRepo:  intentRepo,
		fileStorage: fileStorage,
		interval:    interval,
		staleAfter:  staleAfter,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (r *Reconciler) Run(ctx context.Context) {
	log.Printf("INFO: Storage reconciler running every %s (stale after %s)", r.interval, r.staleAfter)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: Storage reconciler stopping")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep processes one round of stale pending intents.
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.staleAfter)
	intents, err := r.intentRepo.ListStalePending(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: Reconciler failed to list stale intents: %v", err)
		return
	}
	if len(intents) == 0 {
		return
	}
	log.Printf("INFO: Reconciler processing %d stale intents", len(intents))

	for _, intent := range intents {
		r.process(ctx, intent)
	}
}

func (r *Reconciler) process(ctx context.Context, intent domain.StorageIntent) {
	switch {
	case intent.Multipart():
		// The client never called complete; discard the parts.
		if err := r.fileStorage.AbortMultipartUpload(ctx, intent.FileID, intent.UploadID); err != nil {
			log.Printf("WARN: Reconciler could not abort multipart upload %s: %v", intent.UploadID, err)
			return
		}
		r.markAborted(ctx, intent.ID)

	case intent.Kind == domain.IntentPendingUpload:
		// Presigned single-shot upload with no save call. The object may or
		// may not exist; delete is idempotent either way.
		if err := r.fileStorage.DeleteObject(ctx, intent.FileID); err != nil {
			log.Printf("WARN: Reconciler could not remove orphaned object %s: %v", intent.FileID, err)
			return
		}
		r.markAborted(ctx, intent.ID)

	case intent.Kind == domain.IntentPendingDelete && intent.FileID != "":
		if err := r.fileStorage.DeleteObject(ctx, intent.FileID); err != nil {
			log.Printf("WARN: Reconciler delete retry failed for %s: %v", intent.FileID, err)
			return
		}
		r.markResolved(ctx, intent.ID)

	case intent.Kind == domain.IntentPendingDelete:
		// Namespace-level delete that was swallowed as best-effort.
		if err := r.fileStorage.DeleteNamespace(ctx, intent.NamespaceID); err != nil {
			log.Printf("WARN: Reconciler namespace delete retry failed for %s: %v", intent.NamespaceID, err)
			return
		}
		r.markResolved(ctx, intent.ID)
	}
}

func (r *Reconciler) markResolved(ctx context.Context, id string) {
	if err := r.intentRepo.MarkResolved(ctx, id); err != nil {
		log.Printf("WARN: Reconciler could not mark intent %s resolved: %v", id, err)
	}
}

func (r *Reconciler) markAborted(ctx context.Context, id string) {
	if err := r.intentRepo.MarkAborted(ctx, id); err != nil {
		log.Printf("WARN: Reconciler could not mark intent %s aborted: %v", id, err)
	}
}
