package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oculusre/signalharvest/internal/signal"
)

func TestContentIsDeterministic(t *testing.T) {
	t.Parallel()

	first := Content("https://example.com/ep/1", "Quarterly Leasing Outlook")
	second := Content("https://example.com/ep/1", "Quarterly Leasing Outlook")

	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestContentVariesByMarker(t *testing.T) {
	t.Parallel()

	meta := Content("https://example.com/ep/1", "Quarterly Leasing Outlook")
	transcript := Content("https://example.com/ep/1", TranscriptMarker)

	require.NotEqual(t, meta, transcript)
}

func TestForSignalUsesTranscriptMarker(t *testing.T) {
	t.Parallel()

	meta := signal.Signal{
		URL:   "https://example.com/ep/1",
		Title: "Quarterly Leasing Outlook",
		Kind:  signal.SignalKindPodcastMetadata,
	}
	transcript := signal.Signal{
		URL:   "https://example.com/ep/1",
		Title: "Quarterly Leasing Outlook",
		Kind:  signal.SignalKindPodcastTranscript,
	}

	require.Equal(t, Content(meta.URL, meta.Title), ForSignal(meta))
	require.Equal(t, Content(transcript.URL, TranscriptMarker), ForSignal(transcript))
	require.NotEqual(t, ForSignal(meta), ForSignal(transcript))
}
