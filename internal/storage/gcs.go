// Package storage persists reference images to Google Cloud Storage and maps
// storage URIs to their public HTTPS form.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"virezo-server/internal/domain"
)

const (
	uploadPrefix      = "uploads/video-refs"
	uploadContentType = "image/png"
)

// ObjectWriter writes raw bytes to a bucket object. The production
// implementation talks to GCS; tests substitute an in-memory fake.
type ObjectWriter interface {
	Write(ctx context.Context, key, contentType string, data []byte) error
}

// Uploader stores base64-encoded reference images under a fixed namespace in
// the configured bucket.
type Uploader struct {
	bucket string
	writer ObjectWriter
}

// NewUploader validates the bucket name and builds a GCS-backed uploader.
// The bucket may be given with or without a gs:// prefix.
func NewUploader(ctx context.Context, bucket string) (*Uploader, error) {
	name, err := normalizeBucket(bucket)
	if err != nil {
		return nil, err
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &Uploader{bucket: name, writer: &gcsWriter{client: client, bucket: name}}, nil
}

// Upload decodes the base64 payload (stripping any data-URI prefix) and
// writes it under a collision-resistant key. It returns the gs:// location.
func (u *Uploader) Upload(ctx context.Context, base64Data, filename string) (string, error) {
	if u == nil || u.bucket == "" {
		return "", &domain.ConfigurationError{Setting: "VEO_OUTPUT_BUCKET"}
	}
	data, err := base64.StdEncoding.DecodeString(stripDataURI(base64Data))
	if err != nil {
		return "", fmt.Errorf("storage: decode base64 payload: %w", err)
	}
	key := objectKey(filename, time.Now())
	if err := u.writer.Write(ctx, key, uploadContentType, data); err != nil {
		return "", &domain.UploadError{Key: key, Err: err}
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, key), nil
}

// PublicURL rewrites a gs:// URI to its public HTTPS equivalent. HTTPS inputs
// pass through unchanged.
func PublicURL(location string) string {
	if strings.HasPrefix(location, "https://") {
		return location
	}
	if rest, ok := strings.CutPrefix(location, "gs://"); ok {
		return "https://storage.googleapis.com/" + rest
	}
	return location
}

func normalizeBucket(bucket string) (string, error) {
	name := strings.TrimSpace(bucket)
	name = strings.TrimPrefix(name, "gs://")
	name = strings.Trim(name, "/")
	if name == "" {
		return "", &domain.ConfigurationError{Setting: "VEO_OUTPUT_BUCKET"}
	}
	return name, nil
}

// stripDataURI removes a leading data:<mime>;base64, scheme when present.
func stripDataURI(data string) string {
	if !strings.HasPrefix(data, "data:") {
		return data
	}
	if idx := strings.Index(data, "base64,"); idx >= 0 {
		return data[idx+len("base64,"):]
	}
	return data
}

func objectKey(filename string, now time.Time) string {
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "image.png"
	}
	token := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s/%d-%s-%s", uploadPrefix, now.UnixMilli(), token, name)
}

type gcsWriter struct {
	client *gcs.Client
	bucket string
}

func (w *gcsWriter) Write(ctx context.Context, key, contentType string, data []byte) error {
	wr := w.client.Bucket(w.bucket).Object(key).NewWriter(ctx)
	wr.ContentType = contentType
	if _, err := wr.Write(data); err != nil {
		_ = wr.Close()
		return err
	}
	return wr.Close()
}

var _ ObjectWriter = (*gcsWriter)(nil)
