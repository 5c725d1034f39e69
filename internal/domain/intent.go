package domain

import "time"

// IntentKind distinguishes the two write-ahead intent flavors.
type IntentKind string

const (
	IntentPendingUpload IntentKind = "pending-upload"
	IntentPendingDelete IntentKind = "pending-delete"
)

// IntentStatus is the lifecycle of an intent row.
type IntentStatus string

const (
	IntentStatusPending  IntentStatus = "pending"
	IntentStatusResolved IntentStatus = "resolved"
	IntentStatusAborted  IntentStatus = "aborted"
)

// StorageIntent is a write-ahead record for a catalog/storage step that can
// fail independently. It is written before the external call and marked
// resolved after, so a background sweep can find work that never finished:
// abandoned multipart uploads, presigned-but-never-saved objects, and
// storage deletes that were swallowed as best-effort.
type StorageIntent struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        IntentKind   `gorm:"size:32;index" json:"kind"`
	Status      IntentStatus `gorm:"size:32;index;default:pending" json:"status"`
	NamespaceID string       `gorm:"index" json:"namespaceId"`
	// FileID is empty for namespace-level delete intents.
	FileID string `json:"fileId"`
	// UploadID is set only for multipart upload intents; the sweep needs it
	// to abort the upload at the storage layer.
	UploadID   string     `json:"uploadId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Multipart reports whether the intent tracks a multipart upload.
func (i *StorageIntent) Multipart() bool {
	return i.Kind == IntentPendingUpload && i.UploadID != ""
}
