package homedesigns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("homedesigns: api key is required")

// Options configures the HomeDesigns client.
type Options struct {
	APIKey    string
	BaseURL   string
	StatusURL string
	// HTTPClient carries the bearer credential for submit and status calls.
	HTTPClient *http.Client
	// DownloadClient fetches provider-hosted result URLs. Those URLs are
	// pre-authorized by the provider and must not see our credential, so a
	// separate client with no auth header is used.
	DownloadClient *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the external generative-design provider.
// Submission is a single attempt: resubmitting could duplicate billable
// provider work, so retry policy belongs to callers.
type Client struct {
	apiKey         string
	baseURL        string
	statusURL      string
	httpClient     *http.Client
	downloadClient *http.Client
	logger         *infra.Logger
}

type submitResponse struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	InputImage   string   `json:"input_image"`
	OutputImages []string `json:"output_images"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	downloadClient := opts.DownloadClient
	if downloadClient == nil {
		downloadClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://homedesigns.ai/api/v2"
	}
	statusURL := strings.TrimRight(opts.StatusURL, "/")
	if statusURL == "" {
		statusURL = baseURL + "/requests"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:         strings.TrimSpace(opts.APIKey),
		baseURL:        baseURL,
		statusURL:      statusURL,
		httpClient:     httpClient,
		downloadClient: downloadClient,
		logger:         logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit sends the multipart payload to the provider exactly once and
// interprets the response shape: an output list means the work completed
// inline, a bare job id means the job was queued for polling. An inline
// answer with no outputs is a provider error, not an empty success.
func (c *Client) Submit(ctx context.Context, payload *Payload) (Job, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if payload == nil || len(payload.Body()) == 0 {
		return nil, errors.New("homedesigns: payload is required")
	}

	endpoint := c.baseURL + "/create"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload.Body()))
	if err != nil {
		return nil, fmt.Errorf("homedesigns: build request: %w", err)
	}
	req.Header.Set("Content-Type", payload.ContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Message:    "submission rejected",
		}
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Message:    "unparseable response",
		}
	}

	switch {
	case len(decoded.OutputImages) > 0:
		c.logger.Debug().
			Int("outputs", len(decoded.OutputImages)).
			Msg("homedesigns: immediate result")
		return &ImmediateResult{
			InputImage:   decoded.InputImage,
			OutputImages: decoded.OutputImages,
		}, nil
	case decoded.ID != "":
		status := decoded.Status
		if status == "" {
			status = "submitted"
		}
		c.logger.Debug().
			Str("job_id", decoded.ID).
			Str("status", status).
			Msg("homedesigns: job queued")
		return &QueuedJob{ID: decoded.ID, Status: status}, nil
	default:
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			Message:    "no output images received",
		}
	}
}

// JobStatus queries the status endpoint for a queued job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*StatusPayload, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("homedesigns: job id is required")
	}

	endpoint := c.statusURL + "/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: status request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: read status response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			JobID:      jobID,
			Message:    "status query failed",
		}
	}

	var payload StatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("homedesigns: decode status response: %w", err)
	}
	return &payload, nil
}

// FetchArtifact downloads one provider-hosted result. The request carries no
// Authorization header: result URLs are pre-signed by the provider and some
// hosts reject foreign bearer tokens.
func (c *Client) FetchArtifact(ctx context.Context, artifactURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(artifactURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("homedesigns: invalid artifact url: %s", artifactURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: build download request: %w", err)
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: download artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("homedesigns: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("homedesigns: read artifact: %w", err)
	}
	return data, nil
}
