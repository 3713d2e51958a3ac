package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/oculusre/signalharvest/internal/signal"
)

type staticIDs struct{ id string }

func (g staticIDs) NewID() (string, error) { return g.id, nil }

func TestListActiveSourcesScansConfig(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	lastSuccess := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "name", "slug", "kind", "requires_auth", "excluded_from_scheduled_run",
		"config", "last_success_at", "last_error", "consecutive_failures",
	}).
		AddRow(int64(1), "Dealmakers", "dealmakers-pod", signal.SourceKindPodcast, false, false,
			[]byte(`{"transcription_keywords":["industrial"]}`), &lastSuccess, "", 0).
		AddRow(int64(2), "Metro Biz", "metro-biz", signal.SourceKindWebsite, true, false,
			[]byte(`{}`), (*time.Time)(nil), "login failed", 3)

	mock.ExpectQuery("SELECT id, name, slug").WillReturnRows(rows)

	sources, err := store.ListActiveSources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)

	require.Equal(t, []string{"industrial"}, sources[0].Config.TranscriptionKeywords)
	require.True(t, sources[0].Active)
	require.Equal(t, &lastSuccess, sources[0].LastSuccessAt)

	require.True(t, sources[1].RequiresAuth)
	require.Nil(t, sources[1].LastSuccessAt)
	require.Equal(t, 3, sources[1].ConsecutiveFailures)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSignalExists(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("abc123").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.SignalExists(context.Background(), "abc123")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSignalIfAbsentInserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, staticIDs{id: "uuid-7"})
	require.NoError(t, err)

	collected := time.Unix(1700000000, 0).UTC()
	sig := signal.Signal{
		SourceID:    7,
		URL:         "https://news.example.com/a/1",
		Title:       "Tower sale closes",
		Kind:        signal.SignalKindArticle,
		Body:        "body",
		Fingerprint: "fp-1",
		CollectedAt: collected,
	}

	mock.ExpectExec("INSERT INTO signals").
		WithArgs("uuid-7", sig.SourceID, sig.URL, sig.Title, sig.PublishedAt,
			sig.Kind, sig.Body, sig.Fingerprint, sig.Processed, sig.CollectedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := store.InsertSignalIfAbsent(context.Background(), sig)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSignalIfAbsentConflictIsNoOp(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, staticIDs{id: "uuid-7"})
	require.NoError(t, err)

	sig := signal.Signal{Fingerprint: "fp-dup", Kind: signal.SignalKindArticle}

	mock.ExpectExec("INSERT INTO signals").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := store.InsertSignalIfAbsent(context.Background(), sig)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSignalRequiresFingerprint(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	_, err = store.InsertSignalIfAbsent(context.Background(), signal.Signal{})
	require.Error(t, err)
}

func TestMarkSourceHealth(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0).UTC()
	mock.ExpectExec("UPDATE sources").
		WithArgs(int64(4), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.MarkSourceSuccess(context.Background(), 4, at))

	mock.ExpectExec("UPDATE sources").
		WithArgs(int64(4), "feed unavailable").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, store.MarkSourceFailure(context.Background(), 4, "feed unavailable"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSourceFailurePropagatesError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE sources").
		WillReturnError(errors.New("connection reset"))

	err = store.MarkSourceFailure(context.Background(), 4, "x")
	require.Error(t, err)
}
