// Package generation owns the video generation workflow: credit deduction,
// reference image upload, starting the remote job, and polling it to a
// terminal state recorded in the operation registry.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"virezo-server/internal/domain"
	"virezo-server/internal/infra"
	"virezo-server/internal/providers/prompt"
	"virezo-server/internal/providers/veo"
	"virezo-server/internal/registry"
	"virezo-server/internal/storage"
)

const (
	pollInterval     = 3 * time.Second
	maxPollAttempts  = 80
	progressEvery    = 10
	maxImageFetchLen = 20 << 20
)

// VideoClient is the slice of the Veo client the orchestrator needs.
type VideoClient interface {
	Start(ctx context.Context, req veo.StartRequest) (veo.OperationRef, error)
	Poll(ctx context.Context, ref veo.OperationRef) (veo.PollResult, error)
}

// Uploader persists a base64 image and returns its storage location.
type Uploader interface {
	Upload(ctx context.Context, base64Data, filename string) (string, error)
}

// Options wires the orchestrator's collaborators and tunables.
type Options struct {
	Registry    registry.Store
	Uploader    Uploader
	Video       VideoClient
	Credits     domain.CreditRepository
	Activity    domain.ActivityRepository
	Logger      *infra.Logger
	Clock       Clock
	HTTPClient  *http.Client
	OutputURI   string
	CreditCost  int
	SampleCount int
	AspectRatio string
}

// Orchestrator runs one detached task per generation request. For a given
// operation ID it is the only writer to the registry, so readers never see a
// record move backwards.
type Orchestrator struct {
	store       registry.Store
	uploader    Uploader
	video       VideoClient
	credits     domain.CreditRepository
	activity    domain.ActivityRepository
	logger      *infra.Logger
	clock       Clock
	httpClient  *http.Client
	outputURI   string
	creditCost  int
	sampleCount int
	aspectRatio string
}

// Input is a single generation request. Images arrive as data URIs, raw
// base64, or remote HTTP(S) URLs. EndImage is optional.
type Input struct {
	StartImage  string
	EndImage    string
	Prompt      string
	StyleHints  []string
	RequesterID string
	Country     string
}

// NewOrchestrator validates the required collaborators and applies defaults.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil || opts.Uploader == nil || opts.Video == nil || opts.Credits == nil {
		return nil, fmt.Errorf("generation: registry, uploader, video client and credits are required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	creditCost := opts.CreditCost
	if creditCost <= 0 {
		creditCost = 10
	}
	sampleCount := opts.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}
	return &Orchestrator{
		store:       opts.Registry,
		uploader:    opts.Uploader,
		video:       opts.Video,
		credits:     opts.Credits,
		activity:    opts.Activity,
		logger:      opts.Logger,
		clock:       clock,
		httpClient:  httpClient,
		outputURI:   opts.OutputURI,
		creditCost:  creditCost,
		sampleCount: sampleCount,
		aspectRatio: opts.AspectRatio,
	}, nil
}

// Generate charges the requester, registers a processing record, and detaches
// the actual work. It returns the operation ID without doing any network I/O;
// failures before the ID is minted surface synchronously, everything after is
// reported through the registry.
func (o *Orchestrator) Generate(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.RequesterID) == "" {
		return "", domain.ErrAuthRequired
	}

	balance, err := o.credits.Deduct(ctx, in.RequesterID, o.creditCost)
	if err != nil {
		return "", err
	}

	operationID := uuid.NewString()
	if err := o.store.Put(ctx, operationID, domain.Processing(operationID, "Video generation started")); err != nil {
		return "", fmt.Errorf("generation: register operation: %w", err)
	}

	if o.activity != nil {
		entry := &domain.ActivityEntry{
			UserID:      in.RequesterID,
			Action:      "video_generate",
			OperationID: operationID,
			Country:     in.Country,
		}
		if err := o.activity.Record(ctx, entry); err != nil && o.logger != nil {
			o.logger.Warn().Err(err).Str("operation_id", operationID).Msg("generation: record activity failed")
		}
	}

	go o.run(operationID, in, balance)

	return operationID, nil
}

// run is the detached continuation. Every exit path writes a terminal record:
// a panic or unexpected error must never leave the operation processing.
func (o *Orchestrator) run(operationID string, in Input, balance int) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			if o.logger != nil {
				o.logger.Error().Str("operation_id", operationID).Msgf("generation: panic recovered: %v", r)
			}
			o.fail(ctx, operationID, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := o.process(ctx, operationID, in, balance); err != nil {
		o.fail(ctx, operationID, err)
	}
}

func (o *Orchestrator) process(ctx context.Context, operationID string, in Input, balance int) error {
	if strings.TrimSpace(in.StartImage) == "" {
		return domain.ErrMissingStartImage
	}

	startData, err := o.resolveImage(ctx, in.StartImage)
	if err != nil {
		return fmt.Errorf("resolve start image: %w", err)
	}
	startURI, err := o.uploader.Upload(ctx, startData, "start.png")
	if err != nil {
		return err
	}

	var endURI string
	if strings.TrimSpace(in.EndImage) != "" {
		endData, err := o.resolveImage(ctx, in.EndImage)
		if err != nil {
			return fmt.Errorf("resolve end image: %w", err)
		}
		if endURI, err = o.uploader.Upload(ctx, endData, "end.png"); err != nil {
			return err
		}
	}

	ref, err := o.video.Start(ctx, veo.StartRequest{
		Prompt:       prompt.WithStyleHints(prompt.Normalize(in.Prompt), in.StyleHints),
		ImageURI:     startURI,
		LastFrameURI: endURI,
		OutputURI:    o.outputURI,
		SampleCount:  o.sampleCount,
		AspectRatio:  o.aspectRatio,
	})
	if err != nil {
		return err
	}

	return o.pollUntilDone(ctx, operationID, ref, balance)
}

// pollUntilDone drives the remote operation to completion. Individual poll
// failures (including the per-call timeout) are tolerated and retried; only
// the iteration cap or a terminal remote answer ends the loop.
func (o *Orchestrator) pollUntilDone(ctx context.Context, operationID string, ref veo.OperationRef, balance int) error {
	started := o.clock.Now()
	for attempt := 1; attempt <= maxPollAttempts; attempt++ {
		if err := o.clock.Sleep(ctx, pollInterval); err != nil {
			return err
		}

		if attempt%progressEvery == 0 {
			elapsed := o.clock.Now().Sub(started).Round(time.Second)
			message := fmt.Sprintf("Still generating your video (%s elapsed)", elapsed)
			o.put(ctx, operationID, domain.Processing(operationID, message))
		}

		res, err := o.video.Poll(ctx, ref)
		if err != nil {
			if o.logger != nil {
				o.logger.Warn().Err(err).
					Str("operation_id", operationID).
					Int("attempt", attempt).
					Msg("generation: poll failed, retrying")
			}
			continue
		}
		if !res.Done {
			continue
		}
		if res.Error != nil {
			return errors.New(res.Error.Message)
		}

		gcsURI, err := veo.ExtractVideoURI(res.Response)
		if err != nil {
			return err
		}
		videoURL := storage.PublicURL(gcsURI)
		o.put(ctx, operationID, domain.Complete(operationID, videoURL, balance))
		if o.logger != nil {
			o.logger.Info().
				Str("operation_id", operationID).
				Str("video_url", videoURL).
				Int("polls", attempt).
				Msg("generation: complete")
		}
		return nil
	}

	elapsed := time.Duration(maxPollAttempts) * pollInterval
	return &domain.TimeoutError{Aggregate: true, After: elapsed.String()}
}

// resolveImage accepts a data URI, raw base64, or a remote URL; remote images
// are fetched and re-encoded so the uploader only ever sees base64.
func (o *Orchestrator) resolveImage(ctx context.Context, image string) (string, error) {
	image = strings.TrimSpace(image)
	if !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		return image, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, image, nil)
	if err != nil {
		return "", fmt.Errorf("create image request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageFetchLen))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (o *Orchestrator) fail(ctx context.Context, operationID string, err error) {
	if o.logger != nil {
		o.logger.Error().Err(err).Str("operation_id", operationID).Msg("generation: failed")
	}
	o.put(ctx, operationID, domain.Failed(operationID, err.Error()))
}

func (o *Orchestrator) put(ctx context.Context, operationID string, op *domain.Operation) {
	if err := o.store.Put(ctx, operationID, op); err != nil && o.logger != nil {
		o.logger.Error().Err(err).Str("operation_id", operationID).Msg("generation: registry write failed")
	}
}
