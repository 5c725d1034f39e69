package storage

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"lurnix/course-app/internal/config"
)

// s3Storage implements ObjectStorage on an S3-compatible backend. Each
// namespace is its own bucket, so deleting a namespace cannot touch another
// course's objects.
type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketPrefix  string
	partSize      int64
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(cfg config.S3Config, partSize int64) (ObjectStorage, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	// Path-style addressing is required by most S3-compatible services.
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	presignClient := s3.NewPresignClient(s3Client)

	if partSize <= 0 {
		partSize = 8 * 1024 * 1024
	}

	log.Printf("INFO: S3 storage initialized for endpoint: %s, bucket prefix: %s", cfg.Endpoint, cfg.BucketPrefix)

	return &s3Storage{
		client:        s3Client,
		presignClient: presignClient,
		bucketPrefix:  cfg.BucketPrefix,
		partSize:      partSize,
	}, nil
}

// CreateNamespace provisions one bucket per namespace. The returned id keeps
// the requested name as its prefix; a random suffix guarantees two courses
// with the same title still get distinct namespaces.
func (s *s3Storage) CreateNamespace(ctx context.Context, name, region string, public bool) (string, error) {
	bucket := fmt.Sprintf("%s-%s", name, uuid.New().String()[:8])
	if s.bucketPrefix != "" {
		bucket = fmt.Sprintf("%s-%s", s.bucketPrefix, bucket)
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	}
	// us-east-1 is the S3 default and must not be sent as a location constraint.
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if public {
		input.ACL = types.BucketCannedACLPublicRead
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		log.Printf("ERROR: Failed to create namespace bucket '%s': %v", bucket, err)
		return "", err
	}

	log.Printf("INFO: Created namespace '%s'", bucket)
	return bucket, nil
}

// DeleteNamespace empties and removes the namespace bucket.
func (s *s3Storage) DeleteNamespace(ctx context.Context, namespaceID string) error {
	// S3 refuses to delete non-empty buckets, so drain it page by page first.
	var continuation *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(namespaceID),
			ContinuationToken: continuation,
		})
		if err != nil {
			log.Printf("ERROR: Failed to list namespace '%s' for deletion: %v", namespaceID, err)
			return err
		}
		if len(page.Contents) > 0 {
			objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
			for _, obj := range page.Contents {
				objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
			}
			_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(namespaceID),
				Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
			if err != nil {
				log.Printf("ERROR: Failed to empty namespace '%s': %v", namespaceID, err)
				return err
			}
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		continuation = page.NextContinuationToken
	}

	if _, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(namespaceID)}); err != nil {
		log.Printf("ERROR: Failed to delete namespace '%s': %v", namespaceID, err)
		return err
	}

	log.Printf("INFO: Deleted namespace '%s'", namespaceID)
	return nil
}

// objectKey places the object under its location folder with a unique prefix
// so repeated uploads of the same file name never collide.
func objectKey(name, location string) string {
	base := fmt.Sprintf("%s-%s", uuid.New().String()[:8], name)
	location = strings.Trim(location, "/")
	if location == "" {
		return base
	}
	return path.Join(location, base)
}

// GetUploadURL issues a presigned PUT into the namespace.
func (s *s3Storage) GetUploadURL(ctx context.Context, namespaceID, name, location string, expires time.Duration) (*UploadTarget, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	key := objectKey(name, location)

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(namespaceID),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("ERROR: Failed to presign upload for '%s/%s': %v", namespaceID, key, err)
		return nil, err
	}

	return &UploadTarget{
		FileID:    MakeFileID(namespaceID, key),
		UploadURL: req.URL,
	}, nil
}

// StartMultipartUpload initiates the upload and presigns every part URL.
func (s *s3Storage) StartMultipartUpload(ctx context.Context, namespaceID, name string, size int64, location string, expires time.Duration) (*MultipartUpload, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	key := objectKey(name, location)

	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(namespaceID),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Printf("ERROR: Failed to create multipart upload for '%s/%s': %v", namespaceID, key, err)
		return nil, err
	}
	uploadID := aws.ToString(created.UploadId)

	partCount := PlanPartCount(size, s.partSize)
	partURLs := make([]string, 0, partCount)
	for i := 1; i <= partCount; i++ {
		req, err := s.presignClient.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(namespaceID),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(i)),
		}, s3.WithPresignExpires(expires))
		if err != nil {
			log.Printf("ERROR: Failed to presign part %d for '%s/%s': %v", i, namespaceID, key, err)
			return nil, err
		}
		partURLs = append(partURLs, req.URL)
	}

	return &MultipartUpload{
		FileID:    MakeFileID(namespaceID, key),
		UploadID:  uploadID,
		PartSize:  s.partSize,
		PartCount: partCount,
		PartURLs:  partURLs,
	}, nil
}

// CompleteMultipartUpload assembles the uploaded parts into the final object.
func (s *s3Storage) CompleteMultipartUpload(ctx context.Context, fileID, uploadID string, parts []CompletedPart) error {
	namespaceID, key, err := SplitFileID(fileID)
	if err != nil {
		return err
	}

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(namespaceID),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		log.Printf("ERROR: Failed to complete multipart upload '%s' for '%s': %v", uploadID, fileID, err)
		return err
	}
	return nil
}

// AbortMultipartUpload discards an unfinished upload and its parts.
func (s *s3Storage) AbortMultipartUpload(ctx context.Context, fileID, uploadID string) error {
	namespaceID, key, err := SplitFileID(fileID)
	if err != nil {
		return err
	}
	_, err = s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(namespaceID),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		log.Printf("ERROR: Failed to abort multipart upload '%s' for '%s': %v", uploadID, fileID, err)
		return err
	}
	return nil
}

// GeneratePresignedDownloadURL creates a temporary URL for downloading (GET).
func (s *s3Storage) GeneratePresignedDownloadURL(ctx context.Context, fileID string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	namespaceID, key, err := SplitFileID(fileID)
	if err != nil {
		return "", err
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(namespaceID),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("ERROR: Failed to presign download for '%s': %v", fileID, err)
		return "", err
	}
	return req.URL, nil
}

// GenerateOverwriteURL creates a temporary PUT URL for an existing object id.
func (s *s3Storage) GenerateOverwriteURL(ctx context.Context, fileID string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	namespaceID, key, err := SplitFileID(fileID)
	if err != nil {
		return "", err
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(namespaceID),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("ERROR: Failed to presign overwrite for '%s': %v", fileID, err)
		return "", err
	}
	return req.URL, nil
}

// DeleteObject removes a single object.
func (s *s3Storage) DeleteObject(ctx context.Context, fileID string) error {
	namespaceID, key, err := SplitFileID(fileID)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(namespaceID),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Printf("ERROR: Failed to delete object '%s': %v", fileID, err)
		return err
	}
	log.Printf("INFO: Deleted object '%s'", fileID)
	return nil
}

// DeleteObjects removes a batch of objects. File ids may span namespaces, so
// the batch is grouped per bucket; any group failure fails the whole call.
func (s *s3Storage) DeleteObjects(ctx context.Context, fileIDs []string) error {
	grouped := make(map[string][]types.ObjectIdentifier)
	for _, fileID := range fileIDs {
		namespaceID, key, err := SplitFileID(fileID)
		if err != nil {
			return err
		}
		grouped[namespaceID] = append(grouped[namespaceID], types.ObjectIdentifier{Key: aws.String(key)})
	}

	for namespaceID, objects := range grouped {
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(namespaceID),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			log.Printf("ERROR: Failed to batch-delete %d objects in '%s': %v", len(objects), namespaceID, err)
			return err
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			log.Printf("ERROR: Batch delete in '%s' rejected %d objects, first: %s", namespaceID, len(out.Errors), aws.ToString(first.Message))
			return fmt.Errorf("batch delete failed for %d objects in %s", len(out.Errors), namespaceID)
		}
	}
	return nil
}
