package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// transferClient moves bytes through presigned URLs. Only the thumbnail
// pipeline and the inline course-thumbnail upload proxy bytes through the
// service; every other upload goes client-to-storage directly.
var transferClient = &http.Client{Timeout: 60 * time.Second}

// uploadViaPresignedURL PUTs data to a presigned upload URL.
func uploadViaPresignedURL(ctx context.Context, url string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := transferClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("presigned upload returned status %d", resp.StatusCode)
	}
	return nil
}

// downloadViaPresignedURL GETs an object through a presigned download URL.
func downloadViaPresignedURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := transferClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("presigned download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
