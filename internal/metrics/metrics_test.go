package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserveBeforeInitIsNoOp(t *testing.T) {
	require.NotPanics(t, func() {
		ObserveSource("feed_direct", "success")
		AddSignalsStored("cre-weekly", 3)
		ObserveTranscription("failed")
		ObserveRunDuration(time.Second)
	})
}

func TestInitAndObserve(t *testing.T) {
	Init()
	Init() // idempotent

	ObserveSource("feed_direct", "success")
	ObserveSource("website_auth_browser", "failed")
	AddSignalsStored("cre-weekly", 2)
	AddSignalsStored("cre-weekly", 0)
	ObserveTranscription("success")
	ObserveRunDuration(90 * time.Second)

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "gatherer_sources_total")
	require.Contains(t, recorder.Body.String(), "gatherer_signals_stored_total")
}
