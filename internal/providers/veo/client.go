// Package veo drives the Vertex AI Veo long-running video generation API
// over REST: one call to start a job and repeated authenticated status reads
// until the remote reports done.
package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"virezo-server/internal/domain"
	"virezo-server/internal/infra"
)

const pollTimeout = 10 * time.Second

// Options controls how the Veo client is configured.
type Options struct {
	Project     string
	Region      string
	Model       string
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client issues start and poll requests against the Vertex AI endpoint for
// the configured project and region.
type Client struct {
	project     string
	region      string
	model       string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	logger      *infra.Logger
}

// StartRequest carries everything needed to launch a generation job.
type StartRequest struct {
	Prompt       string
	ImageURI     string
	LastFrameURI string
	OutputURI    string
	SampleCount  int
	AspectRatio  string
}

// PollResult mirrors the remote operation status. Error and Response are
// mutually exclusive by remote contract once Done is true, though the API
// does not enforce that statically.
type PollResult struct {
	Done     bool
	Error    *OperationError
	Response json.RawMessage
}

// OperationError is the remote error payload attached to a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type imageRef struct {
	GCSURI   string `json:"gcsUri"`
	MimeType string `json:"mimeType"`
}

type startInstance struct {
	Prompt    string    `json:"prompt"`
	Image     *imageRef `json:"image,omitempty"`
	LastFrame *imageRef `json:"lastFrame,omitempty"`
}

type startParameters struct {
	StorageURI  string `json:"storageUri"`
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type startPayload struct {
	Instances  []startInstance `json:"instances"`
	Parameters startParameters `json:"parameters"`
}

type startResponse struct {
	Name string `json:"name"`
}

type pollEnvelope struct {
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

// NewClient constructs a Veo client. A nil token source falls back to the
// application default credentials scoped for the cloud platform.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Project == "" || opts.Region == "" {
		return nil, fmt.Errorf("veo: project and region are required")
	}
	ts := opts.TokenSource
	if ts == nil {
		defaultTS, err := google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, fmt.Errorf("veo: default credentials: %w", err)
		}
		ts = defaultTS
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	model := opts.Model
	if model == "" {
		model = "veo-2.0-generate-001"
	}
	return &Client{
		project:     opts.Project,
		region:      opts.Region,
		model:       model,
		tokenSource: ts,
		httpClient:  httpClient,
		logger:      opts.Logger,
	}, nil
}

// Model returns the configured Veo model identifier.
func (c *Client) Model() string {
	return c.model
}

// Start launches the long-running generation job and returns the parsed
// remote operation reference.
func (c *Client) Start(ctx context.Context, req StartRequest) (OperationRef, error) {
	instance := startInstance{Prompt: req.Prompt}
	if req.ImageURI != "" {
		instance.Image = &imageRef{GCSURI: req.ImageURI, MimeType: "image/png"}
	}
	if req.LastFrameURI != "" {
		instance.LastFrame = &imageRef{GCSURI: req.LastFrameURI, MimeType: "image/png"}
	}
	sampleCount := req.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}
	payload := startPayload{
		Instances: []startInstance{instance},
		Parameters: startParameters{
			StorageURI:  req.OutputURI,
			SampleCount: sampleCount,
			AspectRatio: req.AspectRatio,
		},
	}

	endpoint := fmt.Sprintf("%s/publishers/google/models/%s:predictLongRunning", c.baseURL(), c.model)
	var out startResponse
	if err := c.invoke(ctx, http.MethodPost, endpoint, payload, &out); err != nil {
		return OperationRef{}, err
	}
	if out.Name == "" {
		return OperationRef{}, &domain.ResponseFormatError{Detail: "start response missing operation name"}
	}

	ref, err := ParseOperationRef(out.Name, c.model)
	if err != nil {
		return OperationRef{}, err
	}
	if c.logger != nil {
		c.logger.Info().
			Str("operation", ref.Name).
			Str("model", ref.Model).
			Msg("veo: generation started")
	}
	return ref, nil
}

// Poll reads the remote operation status once. The request runs under a
// fixed 10 second deadline; exceeding it surfaces as a TimeoutError distinct
// from remote 4xx/5xx failures.
func (c *Client) Poll(ctx context.Context, ref OperationRef) (PollResult, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	var out pollEnvelope
	if err := c.invoke(pollCtx, http.MethodGet, c.statusURL(ref), nil, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return PollResult{}, &domain.TimeoutError{After: pollTimeout.String()}
		}
		return PollResult{}, err
	}
	return PollResult{Done: out.Done, Error: out.Error, Response: out.Response}, nil
}

// statusURL picks the endpoint shape for the ID form. UUID-shaped IDs only
// resolve on the publisher/model-scoped path; numeric IDs only on the flat
// operations path.
func (c *Client) statusURL(ref OperationRef) string {
	if ref.Kind == IDUUID {
		model := ref.Model
		if model == "" {
			model = c.model
		}
		return fmt.Sprintf("%s/publishers/google/models/%s/operations/%s", c.baseURL(), model, ref.ID)
	}
	return fmt.Sprintf("%s/operations/%s", c.baseURL(), ref.ID)
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s", c.region, c.project, c.region)
}

func (c *Client) invoke(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("veo: marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("veo: create request: %w", err)
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthToken, err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("veo: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &domain.RemoteAPIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("veo: decode response: %w", err)
	}
	return nil
}
