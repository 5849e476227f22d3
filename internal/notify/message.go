package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/matchcast/internal/fetch"
)

// FormatFetchSuccess creates a success notification body.
func FormatFetchSuccess(result *fetch.BatchResult, duration time.Duration) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Steps: %d\n", result.Steps))
	sb.WriteString(fmt.Sprintf("Files: %d\n", result.Total))
	sb.WriteString(fmt.Sprintf("Downloaded: %d\n", result.Success-result.Skipped))
	sb.WriteString(fmt.Sprintf("Skipped: %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	return sb.String()
}

// FormatFetchFailure creates a failure notification body.
func FormatFetchFailure(result *fetch.BatchResult, duration time.Duration, err error) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Files: %d\n", result.Total))
	sb.WriteString(fmt.Sprintf("Success: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Second)))

	if err != nil {
		sb.WriteString(fmt.Sprintf("\n\nError: %v", err))
	}

	// Include first 3 error messages if available
	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(3, len(result.Errors))
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", result.Errors[i]))
		}
		if len(result.Errors) > 3 {
			sb.WriteString(fmt.Sprintf("... and %d more errors", len(result.Errors)-3))
		}
	}

	return sb.String()
}

// FormatPlaybackFinished creates the body sent when a broadcast reaches its
// last step.
func FormatPlaybackFinished(steps, viewers int, duration time.Duration) string {
	return fmt.Sprintf("Steps: %d\nViewers at end: %d\nDuration: %s", steps, viewers, duration.Round(time.Second))
}
