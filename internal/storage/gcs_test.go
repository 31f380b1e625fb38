package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"virezo-server/internal/domain"
)

type fakeWriter struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (f *fakeWriter) Write(_ context.Context, key, contentType string, data []byte) error {
	f.key = key
	f.contentType = contentType
	f.data = append([]byte(nil), data...)
	return f.err
}

func TestUploadStripsDataURIPrefix(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	w := &fakeWriter{}
	u := &Uploader{bucket: "test-bucket", writer: w}

	location, err := u.Upload(context.Background(), payload, "frame.png")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !strings.HasPrefix(location, "gs://test-bucket/uploads/video-refs/") {
		t.Fatalf("location = %q, want gs://test-bucket/uploads/video-refs/ prefix", location)
	}
	if !strings.HasSuffix(w.key, "-frame.png") {
		t.Fatalf("key = %q, want -frame.png suffix", w.key)
	}
	if w.contentType != "image/png" {
		t.Fatalf("content type = %q, want image/png", w.contentType)
	}
	if string(w.data) != string(raw) {
		t.Fatalf("written bytes = %v, want %v", w.data, raw)
	}
}

func TestUploadRejectsInvalidBase64(t *testing.T) {
	u := &Uploader{bucket: "test-bucket", writer: &fakeWriter{}}
	if _, err := u.Upload(context.Background(), "not valid base64!!", "x.png"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestUploadWrapsTransportFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("boom")}
	u := &Uploader{bucket: "test-bucket", writer: w}

	_, err := u.Upload(context.Background(), base64.StdEncoding.EncodeToString([]byte("x")), "x.png")
	var uploadErr *domain.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("error = %v, want *domain.UploadError", err)
	}
}

func TestNormalizeBucket(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "my-bucket", want: "my-bucket"},
		{in: "gs://my-bucket", want: "my-bucket"},
		{in: "gs://my-bucket/", want: "my-bucket"},
		{in: "  gs://my-bucket  ", want: "my-bucket"},
		{in: "", wantErr: true},
		{in: "gs://", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := normalizeBucket(tc.in)
		if tc.wantErr {
			var cfgErr *domain.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("normalizeBucket(%q) error = %v, want ConfigurationError", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normalizeBucket(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("normalizeBucket(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "gs://bucket/outputs/video.mp4", want: "https://storage.googleapis.com/bucket/outputs/video.mp4"},
		{in: "https://storage.googleapis.com/bucket/outputs/video.mp4", want: "https://storage.googleapis.com/bucket/outputs/video.mp4"},
		{in: "bucket/plain/path.mp4", want: "bucket/plain/path.mp4"},
	}
	for _, tc := range tests {
		if got := PublicURL(tc.in); got != tc.want {
			t.Fatalf("PublicURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPublicURLNeverLeavesSchemeRemnants(t *testing.T) {
	for i := 0; i < 20; i++ {
		location := fmt.Sprintf("gs://bucket-%d/uploads/video-refs/%d-file.mp4", i, i)
		got := PublicURL(location)
		if strings.Contains(got, "gs://") {
			t.Fatalf("PublicURL(%q) = %q still contains gs://", location, got)
		}
		if !strings.HasPrefix(got, "https://") {
			t.Fatalf("PublicURL(%q) = %q is not https", location, got)
		}
	}
}

func TestObjectKeyFallsBackForEmptyFilename(t *testing.T) {
	key := objectKey("", time.Unix(1700000000, 0))
	if !strings.HasSuffix(key, "-image.png") {
		t.Fatalf("key = %q, want -image.png suffix", key)
	}
	if !strings.HasPrefix(key, "uploads/video-refs/") {
		t.Fatalf("key = %q, want uploads/video-refs/ prefix", key)
	}
}

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "data:image/png;base64,AAAA", want: "AAAA"},
		{in: "data:image/jpeg;base64,QkJC", want: "QkJC"},
		{in: "AAAA", want: "AAAA"},
		{in: "data:weird-no-marker", want: "data:weird-no-marker"},
	}
	for _, tc := range tests {
		if got := stripDataURI(tc.in); got != tc.want {
			t.Fatalf("stripDataURI(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
