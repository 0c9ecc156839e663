package transform

import (
	"errors"
	"fmt"
)

// Sentinels for classification via errors.Is.
var (
	// ErrAssetNotFound means the source image does not exist in object storage.
	ErrAssetNotFound = errors.New("transform: source asset not found")
	// ErrMissingTransparency means a transparent background was required but
	// the decoded image carries no alpha channel.
	ErrMissingTransparency = errors.New("transform: source image has no alpha channel")
)

// TooSmallError reports a source image below the provider's minimum
// dimensions, echoing the measured values.
type TooSmallError struct {
	Width  int
	Height int
	Min    int
}

func (e *TooSmallError) Error() string {
	return fmt.Sprintf("transform: source image %dx%d is below the %dx%d minimum", e.Width, e.Height, e.Min, e.Min)
}

// TimeoutError reports a queued job that did not reach a terminal provider
// status within the polling budget.
type TimeoutError struct {
	JobID      string
	LastStatus string
	Attempts   int
}

func (e *TimeoutError) Error() string {
	status := e.LastStatus
	if status == "" {
		status = "unknown"
	}
	return fmt.Sprintf("transform: job %s still %s after %d status checks", e.JobID, status, e.Attempts)
}
