package transform

import (
	"fmt"
	"time"
)

// Result is the terminal value of one orchestration run. It is constructed
// once and never mutated; the HTTP layer serializes it as-is so success and
// failure share one wire shape.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	JobID          string   `json:"job_id,omitempty"`
	InputImage     string   `json:"input_image,omitempty"`
	OutputImages   []string `json:"output_images"`
	SavedImageURLs []string `json:"saved_image_urls"`

	DesignType  string `json:"design_type"`
	DesignStyle string `json:"design_style,omitempty"`
	OutputCount int    `json:"output_count"`
	SavedCount  int    `json:"saved_count"`
	Note        string `json:"note,omitempty"`

	ElapsedSeconds float64   `json:"elapsed_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// aggregateResult folds the provider outputs and the persisted artifacts
// into the final response. Overall success depends only on the provider
// having produced outputs: partially failed persistence still counts as a
// (smaller) success because the provider-hosted URLs stay usable until they
// expire.
func aggregateResult(req Request, jobID, inputImage string, outputs []string, persisted []PersistedArtifact, start time.Time, clock Clock) *Result {
	saved := make([]string, 0, len(persisted))
	for _, artifact := range persisted {
		saved = append(saved, artifact.URL)
	}

	res := &Result{
		Success:        len(outputs) > 0,
		JobID:          jobID,
		InputImage:     inputImage,
		OutputImages:   outputs,
		SavedImageURLs: saved,
		DesignType:     string(req.DesignType),
		DesignStyle:    req.DesignStyle,
		OutputCount:    len(outputs),
		SavedCount:     len(saved),
		ElapsedSeconds: clock.Now().Sub(start).Seconds(),
		Timestamp:      clock.Now().UTC(),
	}
	if res.SavedCount < res.OutputCount {
		res.Note = fmt.Sprintf("saved %d of %d output images", res.SavedCount, res.OutputCount)
	}
	return res
}

// failureResult builds the uniform payload for a run that halted before
// producing outputs.
func failureResult(req Request, jobID string, err error, start time.Time, clock Clock) *Result {
	return &Result{
		Success:        false,
		Error:          err.Error(),
		JobID:          jobID,
		OutputImages:   []string{},
		SavedImageURLs: []string{},
		DesignType:     string(req.DesignType),
		DesignStyle:    req.DesignStyle,
		ElapsedSeconds: clock.Now().Sub(start).Seconds(),
		Timestamp:      clock.Now().UTC(),
	}
}
