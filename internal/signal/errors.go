package signal

import "errors"

// Pipeline error taxonomy. Everything except ErrConfigurationUnavailable is
// caught at the source-iteration boundary and recorded in the RunResult.
var (
	// ErrConfigurationUnavailable means the active source list could not be
	// loaded. Fatal for the entire run.
	ErrConfigurationUnavailable = errors.New("source configuration unavailable")

	// ErrSessionLaunchFailed means the rendering engine could not start for
	// one source.
	ErrSessionLaunchFailed = errors.New("browser session launch failed")

	// ErrFeedUnavailable means a feed could not be fetched or parsed.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrExtractionFailed wraps any error raised inside an extraction
	// strategy.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrTranscriptionFailed is soft: the episode degrades to a
	// metadata-only signal.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrPersistenceFailed means a single signal failed to store.
	ErrPersistenceFailed = errors.New("signal persistence failed")
)
