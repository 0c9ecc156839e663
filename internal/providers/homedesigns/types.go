package homedesigns

import "fmt"

// DesignType selects the transformation family. It also determines which
// location field the provider requires on submission.
type DesignType string

const (
	DesignTypeInterior DesignType = "Interior"
	DesignTypeExterior DesignType = "Exterior"
	DesignTypeGarden   DesignType = "Garden"
)

// conditionalField maps each design type onto the one form field the
// provider demands for it.
var conditionalField = map[DesignType]string{
	DesignTypeInterior: "room_type",
	DesignTypeExterior: "house_angle",
	DesignTypeGarden:   "garden_type",
}

// KnownDesignType reports whether t is a design type this client can submit.
func KnownDesignType(t DesignType) bool {
	_, ok := conditionalField[t]
	return ok
}

// Job is the provider-side unit of work. Exactly one concrete type is
// returned from Submit: an ImmediateResult when the provider answered
// inline, or a QueuedJob when it handed back a job id to poll.
type Job interface {
	isJob()
}

// ImmediateResult carries the final artifact references directly.
type ImmediateResult struct {
	InputImage   string
	OutputImages []string
}

func (*ImmediateResult) isJob() {}

// QueuedJob carries the provider-assigned identifier for a job that must be
// polled until it reaches a terminal status.
type QueuedJob struct {
	ID     string
	Status string
}

func (*QueuedJob) isJob() {}

// StatusPayload is the provider's answer to a status query. Any field may be
// absent; an empty OutputImages list means the job is not complete yet.
type StatusPayload struct {
	Status       string   `json:"status"`
	CreatedAt    string   `json:"created_at"`
	StartedAt    string   `json:"started_at"`
	InputImage   string   `json:"input_image"`
	OutputImages []string `json:"output_images"`
}

// MissingFieldError reports a form field the selected design type requires
// but the caller did not supply. It is always raised before any network call.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("homedesigns: missing required field %s", e.Field)
}

// ProviderError wraps a non-success answer from the provider. Body holds the
// raw response verbatim because the provider is a black box and its error
// payloads are the only diagnostic available.
type ProviderError struct {
	StatusCode int
	Body       string
	JobID      string
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider request failed"
	}
	switch {
	case e.JobID != "" && e.Status != "":
		return fmt.Sprintf("homedesigns: %s (job %s, status %s)", msg, e.JobID, e.Status)
	case e.StatusCode != 0:
		return fmt.Sprintf("homedesigns: %s (status %d): %s", msg, e.StatusCode, e.Body)
	default:
		return "homedesigns: " + msg
	}
}
