package transform

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"server/internal/infra"
	"server/internal/providers/homedesigns"
	"server/internal/storage"
)

// Request is the input to one orchestration run.
type Request struct {
	Source Source

	DesignType  homedesigns.DesignType
	DesignStyle string
	OutputCount int

	// Exactly one of these is required, selected by DesignType.
	RoomType   string
	HouseAngle string
	GardenType string

	Prompt            string
	CustomInstruction string
	KeepStructure     *bool

	// RequireTransparency demands an alpha-channel-bearing source image.
	RequireTransparency bool
}

// ProviderClient is the full provider surface the orchestrator consumes.
type ProviderClient interface {
	Submit(ctx context.Context, payload *homedesigns.Payload) (homedesigns.Job, error)
	StatusQuerier
	ArtifactDownloader
}

// Options wires an Orchestrator.
type Options struct {
	Store        storage.ObjectStore
	Provider     ProviderClient
	Clock        Clock
	PollInterval time.Duration
	PollAttempts int
	SignedURLTTL time.Duration
	Workers      int
	Logger       infra.Logger
}

// Orchestrator runs the whole transformation pipeline: fetch, validate,
// submit, poll when queued, fan out persistence, aggregate. Each run owns
// its buffers and job state; instances are safe for concurrent use.
type Orchestrator struct {
	store     storage.ObjectStore
	provider  ProviderClient
	clock     Clock
	poller    *Poller
	persister *Persister
	logger    infra.Logger
}

// New builds an Orchestrator with defaults for anything unset.
func New(opts Options) *Orchestrator {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	return &Orchestrator{
		store:     opts.Store,
		provider:  opts.Provider,
		clock:     clock,
		poller:    NewPoller(opts.Provider, clock, opts.PollInterval, opts.PollAttempts, opts.Logger),
		persister: NewPersister(opts.Store, opts.Provider, clock, opts.SignedURLTTL, opts.Workers, opts.Logger),
		logger:    opts.Logger,
	}
}

// Run executes one transformation. The returned Result is always non-nil so
// callers have a uniform payload; the error classifies the failure for
// status mapping and is nil on success.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := o.clock.Now()

	data, err := fetchSource(ctx, o.store, req.Source)
	if err != nil {
		return failureResult(req, "", err, start, o.clock), err
	}

	// Constraint inspection decodes the header only. If decoding itself
	// fails the provider gets to do its own validation; only measured
	// violations halt the run.
	if insp, inspErr := InspectImage(data); inspErr != nil {
		o.logger.Warn().Err(inspErr).
			Str("source", req.Source.Key()).
			Msg("transform: image inspection failed, deferring to provider validation")
	} else if err := CheckConstraints(insp, req.RequireTransparency); err != nil {
		return failureResult(req, "", err, start, o.clock), err
	}

	payload, err := homedesigns.BuildPayload(homedesigns.PayloadParams{
		DesignType:        req.DesignType,
		DesignStyle:       req.DesignStyle,
		OutputCount:       req.OutputCount,
		RoomType:          req.RoomType,
		HouseAngle:        req.HouseAngle,
		GardenType:        req.GardenType,
		Prompt:            req.Prompt,
		CustomInstruction: req.CustomInstruction,
		KeepStructure:     req.KeepStructure,
		FileName:          req.Source.FileName,
	}, data)
	if err != nil {
		return failureResult(req, "", err, start, o.clock), err
	}
	data = nil // the payload owns its own copy; the source buffer is done

	job, err := o.provider.Submit(ctx, payload)
	if err != nil {
		return failureResult(req, "", err, start, o.clock), err
	}

	var jobID, inputImage string
	var outputs []string

	switch j := job.(type) {
	case *homedesigns.ImmediateResult:
		inputImage = j.InputImage
		outputs = j.OutputImages
	case *homedesigns.QueuedJob:
		jobID = j.ID
		last, state, pollErr := o.poller.Wait(ctx, j.ID)
		if pollErr != nil {
			return failureResult(req, jobID, pollErr, start, o.clock), pollErr
		}
		switch state {
		case StateComplete:
			inputImage = last.InputImage
			outputs = last.OutputImages
		case StateFailed:
			ferr := &homedesigns.ProviderError{
				JobID:   jobID,
				Status:  lastStatus(last),
				Message: "provider reported failure",
			}
			return failureResult(req, jobID, ferr, start, o.clock), ferr
		case StateTimedOut:
			terr := &TimeoutError{JobID: jobID, LastStatus: lastStatus(last), Attempts: o.poller.maxAttempts}
			return failureResult(req, jobID, terr, start, o.clock), terr
		default:
			uerr := fmt.Errorf("transform: unexpected poll state %q for job %s", state, jobID)
			return failureResult(req, jobID, uerr, start, o.clock), uerr
		}
	}

	if len(outputs) == 0 {
		perr := &homedesigns.ProviderError{JobID: jobID, Message: "no output images received"}
		return failureResult(req, jobID, perr, start, o.clock), perr
	}

	persisted := o.persister.Persist(ctx, outputs, destinationDir(req.Source), persistBaseName(req))
	res := aggregateResult(req, jobID, inputImage, outputs, persisted, start, o.clock)

	o.logger.Info().
		Str("design_type", string(req.DesignType)).
		Str("job_id", jobID).
		Int("outputs", res.OutputCount).
		Int("saved", res.SavedCount).
		Float64("elapsed_seconds", res.ElapsedSeconds).
		Msg("transform: run complete")
	return res, nil
}

// destinationDir places persisted artifacts next to the source, under a
// generated/ prefix.
func destinationDir(src Source) string {
	return storage.JoinKey(src.Container, src.Directory, "generated")
}

// persistBaseName derives a stable human-readable prefix for persisted
// artifact names from the source file and design type.
func persistBaseName(req Request) string {
	base := strings.TrimSuffix(req.Source.FileName, path.Ext(req.Source.FileName))
	base = strings.Trim(strings.ToLower(base), "-._ ")
	if base == "" {
		base = "design"
	}
	return base + "-" + strings.ToLower(string(req.DesignType))
}
