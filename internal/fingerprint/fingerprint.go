// Package fingerprint derives the content-addressed dedup key for signals.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/oculusre/signalharvest/internal/signal"
)

// TranscriptMarker distinguishes a transcript fingerprint from the metadata
// fingerprint of the same episode, so both signals can coexist.
const TranscriptMarker = "transcript"

// Content hashes the canonical (url, marker) pair into a stable hex digest.
func Content(url, marker string) string {
	sum := sha256.Sum256([]byte(url + "\n" + marker))
	return hex.EncodeToString(sum[:])
}

// ForSignal computes the fingerprint for a signal based on its kind.
// Transcript signals are keyed on (URL, "transcript"); everything else on
// (URL, title).
func ForSignal(sig signal.Signal) string {
	if sig.Kind == signal.SignalKindPodcastTranscript {
		return Content(sig.URL, TranscriptMarker)
	}
	return Content(sig.URL, sig.Title)
}
