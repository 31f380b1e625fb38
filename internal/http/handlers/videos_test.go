package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"virezo-server/internal/domain"
	"virezo-server/internal/generation"
	"virezo-server/internal/providers/veo"
	"virezo-server/internal/registry"
)

type stubCredits struct {
	err error
}

func (s *stubCredits) Deduct(context.Context, string, int) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return 90, nil
}

func (s *stubCredits) Balance(context.Context, string) (int, error) { return 90, nil }

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, _, filename string) (string, error) {
	return "gs://test-bucket/" + filename, nil
}

type stubVideo struct{}

func (stubVideo) Start(context.Context, veo.StartRequest) (veo.OperationRef, error) {
	return veo.OperationRef{Name: "projects/p/locations/r/operations/1", ID: "1", Kind: veo.IDNumeric}, nil
}

func (stubVideo) Poll(context.Context, veo.OperationRef) (veo.PollResult, error) {
	return veo.PollResult{
		Done:     true,
		Response: json.RawMessage(`{"generatedVideos":[{"video":{"gcsUri":"gs://out/v.mp4"}}]}`),
	}, nil
}

func newTestApp(t *testing.T, credits *stubCredits) (*App, *registry.Memory) {
	t.Helper()
	store := registry.NewMemory(registry.DefaultRetention)
	t.Cleanup(store.Stop)

	orch, err := generation.NewOrchestrator(generation.Options{
		Registry:  store,
		Uploader:  stubUploader{},
		Video:     stubVideo{},
		Credits:   credits,
		OutputURI: "gs://out/",
	})
	if err != nil {
		t.Fatalf("NewOrchestrator returned error: %v", err)
	}
	return NewApp(orch, store, zerolog.Nop()), store
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not JSON: %v", err)
	}
	return body
}

func TestVideosGenerateAccepted(t *testing.T) {
	app, store := newTestApp(t, &stubCredits{})

	payload := `{"start_image":"aGk=","prompt":"a cat","requester_id":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusAccepted, rec.Body)
	}
	body := decodeBody(t, rec)
	if body["status"] != "processing" {
		t.Fatalf("status field = %v, want processing", body["status"])
	}
	opID, _ := body["operation_id"].(string)
	if opID == "" {
		t.Fatal("response has no operation_id")
	}
	if _, err := store.Get(context.Background(), opID); err != nil {
		t.Fatalf("registry has no record for %q: %v", opID, err)
	}
}

func TestVideosGenerateRequesterFromHeader(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader(`{"start_image":"aGk="}`))
	req.Header.Set("X-User-ID", "u2")
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusAccepted, rec.Body)
	}
}

func TestVideosGenerateUnauthorized(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader(`{"start_image":"aGk="}`))
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestVideosGenerateInsufficientCredits(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{err: domain.ErrInsufficientCredits})

	payload := `{"start_image":"aGk=","requester_id":"u1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
	if body := decodeBody(t, rec); body["error"] != "insufficient_credits" {
		t.Fatalf("error code = %v", body["error"])
	}
}

func TestVideosGenerateInvalidJSON(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{})

	req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	app.VideosGenerate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVideoStatusRequiresOperationID(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/generate/status", nil)
	rec := httptest.NewRecorder()
	app.VideoStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestVideoStatusAbsentReportsProcessing(t *testing.T) {
	app, _ := newTestApp(t, &stubCredits{})

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/generate/status?operation_id=nope", nil)
	rec := httptest.NewRecorder()
	app.VideoStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["status"] != "processing" {
		t.Fatalf("status field = %v, want processing", body["status"])
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Fatal("absent record response has no message")
	}
}

func TestVideoStatusProcessingRecordSurvivesRead(t *testing.T) {
	app, store := newTestApp(t, &stubCredits{})
	ctx := context.Background()
	store.Put(ctx, "op-1", domain.Processing("op-1", "Video generation started"))

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/generate/status?operation_id=op-1", nil)
	rec := httptest.NewRecorder()
	app.VideoStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if _, err := store.Get(ctx, "op-1"); err != nil {
		t.Fatalf("processing record was deleted on read: %v", err)
	}
}

func TestVideoStatusTerminalRecordDeletedOnRead(t *testing.T) {
	app, store := newTestApp(t, &stubCredits{})
	ctx := context.Background()
	store.Put(ctx, "op-1", domain.Complete("op-1", "https://storage.googleapis.com/out/v.mp4", 90))

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/generate/status?operation_id=op-1", nil)
	rec := httptest.NewRecorder()
	app.VideoStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["status"] != "complete" {
		t.Fatalf("status field = %v, want complete", body["status"])
	}
	if body["video_url"] != "https://storage.googleapis.com/out/v.mp4" {
		t.Fatalf("video_url = %v", body["video_url"])
	}

	// A second read sees the consumed record as processing again.
	rec = httptest.NewRecorder()
	app.VideoStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/videos/generate/status?operation_id=op-1", nil))
	if body := decodeBody(t, rec); body["status"] != "processing" {
		t.Fatalf("second read status = %v, want processing", body["status"])
	}
}
