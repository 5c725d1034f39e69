package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// UploadTarget is the result of a single-shot presign: the caller PUTs the
// bytes to UploadURL out-of-band and later reports FileID back to the catalog.
type UploadTarget struct {
	FileID    string `json:"fileId"`
	UploadURL string `json:"uploadUrl"`
}

// MultipartUpload is the plan for a large upload. PartURLs has exactly
// PartCount entries, each independently usable for a direct part upload.
// Every part is PartSize bytes except the last, which is the remainder, so
// the declared part sizes sum to the announced object size exactly.
type MultipartUpload struct {
	FileID    string   `json:"fileId"`
	UploadID  string   `json:"uploadId"`
	PartSize  int64    `json:"partSize"`
	PartCount int      `json:"partCount"`
	PartURLs  []string `json:"partUrls"`
}

// CompletedPart is one client-reported part of a finished multipart upload.
type CompletedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// ObjectStorage defines the interface for namespace-scoped object storage.
// A namespace is an isolated container holding all objects of one course.
type ObjectStorage interface {
	// CreateNamespace provisions an isolated namespace and returns its id.
	CreateNamespace(ctx context.Context, name, region string, public bool) (string, error)

	// DeleteNamespace removes the namespace and everything in it.
	DeleteNamespace(ctx context.Context, namespaceID string) error

	// GetUploadURL issues a presigned single-shot upload into the namespace.
	GetUploadURL(ctx context.Context, namespaceID, name, location string, expires time.Duration) (*UploadTarget, error)

	// StartMultipartUpload initiates a multipart upload and presigns one URL
	// per part. partCount = ceil(size / partSize).
	StartMultipartUpload(ctx context.Context, namespaceID, name string, size int64, location string, expires time.Duration) (*MultipartUpload, error)

	// CompleteMultipartUpload asks the storage service to assemble the parts
	// into the final object.
	CompleteMultipartUpload(ctx context.Context, fileID, uploadID string, parts []CompletedPart) error

	// AbortMultipartUpload discards an unfinished multipart upload.
	AbortMultipartUpload(ctx context.Context, fileID, uploadID string) error

	// GeneratePresignedDownloadURL creates a temporary GET URL for an object.
	GeneratePresignedDownloadURL(ctx context.Context, fileID string, expires time.Duration) (string, error)

	// GenerateOverwriteURL creates a temporary PUT URL that writes back to an
	// existing object id, used by the transform pipeline to persist results
	// in place.
	GenerateOverwriteURL(ctx context.Context, fileID string, expires time.Duration) (string, error)

	// DeleteObject removes one object.
	DeleteObject(ctx context.Context, fileID string) error

	// DeleteObjects removes a batch of objects in one storage call. The call
	// either deletes the whole batch or fails as a unit.
	DeleteObjects(ctx context.Context, fileIDs []string) error
}

// PlanPartCount returns ceil(size / partSize).
func PlanPartCount(size, partSize int64) int {
	if size <= 0 || partSize <= 0 {
		return 0
	}
	return int((size + partSize - 1) / partSize)
}

// A file id is "<namespaceID>/<object key>". Keeping the namespace inside the
// id lets download, delete and transform calls operate on the id alone, and
// lets an external sweep locate the object from the id.

// MakeFileID builds a file id from its namespace and object key.
func MakeFileID(namespaceID, key string) string {
	return namespaceID + "/" + key
}

// SplitFileID splits a file id into namespace id and object key.
func SplitFileID(fileID string) (namespaceID, key string, err error) {
	idx := strings.Index(fileID, "/")
	if idx <= 0 || idx == len(fileID)-1 {
		return "", "", fmt.Errorf("malformed file id %q", fileID)
	}
	return fileID[:idx], fileID[idx+1:], nil
}
